package integrationtests

import (
	"fmt"
	"net/http"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/PrathamRanjan/meeting-booking-app/pkg/model"
	"github.com/PrathamRanjan/meeting-booking-app/test/integration/testutil"
)

var httpClient *testutil.Client

func TestMain(m *testing.M) {
	serverURL := os.Getenv("TEST_SERVER_URL")
	if serverURL == "" {
		fmt.Println("TEST_SERVER_URL not set, skipping integration tests")
		os.Exit(0)
	}
	httpClient = testutil.NewClient(serverURL)
	os.Exit(m.Run())
}

// uniqueRoom builds a room name that is valid MACRO_CASE and unique per run,
// so repeated runs against a persistent database never collide.
func uniqueRoom(prefix string) string {
	suffix := make([]byte, 0, 16)
	for _, d := range fmt.Sprintf("%d", time.Now().UnixNano()) {
		suffix = append(suffix, byte('A'+(d-'0')))
	}
	return prefix + "_" + string(suffix)
}

func uniqueUser(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
}

func bookingPayload(room, user, day, start, end string) map[string]any {
	return map[string]any{
		"room":       room,
		"user":       user,
		"start_time": day + " " + start,
		"end_time":   day + " " + end,
	}
}

func testDay(offsetDays int) string {
	return time.Now().AddDate(0, 0, 7+offsetDays).Format(model.DateLayout)
}

func TestHealthEndpoints(t *testing.T) {
	httpClient.WaitForHealthy(t, 30*time.Second)

	resp := httpClient.GET(t, "/ready")
	testutil.AssertStatusCode(t, resp, http.StatusOK)
	testutil.AssertContains(t, resp, "ready")
}

func TestCreateAndQueryBooking(t *testing.T) {
	room := uniqueRoom("SUMMIT")
	user := uniqueUser("alice")
	day := testDay(0)

	resp := httpClient.POST(t, "/bookings", bookingPayload(room, user, day, "10:00", "11:00"))
	testutil.AssertStatusCode(t, resp, http.StatusCreated)

	var created model.BookingResponse
	if err := resp.DecodeJSON(&created); err != nil {
		t.Fatalf("failed to decode created booking: %v", err)
	}
	if created.ID == "" {
		t.Fatal("created booking has no ID")
	}
	if created.StartTime != day+" 10:00" {
		t.Fatalf("unexpected start_time: %s", created.StartTime)
	}

	resp = httpClient.GET(t, "/bookings?date="+day+"&room="+room)
	testutil.AssertStatusCode(t, resp, http.StatusOK)

	var listed []model.BookingResponse
	if err := resp.DecodeJSON(&listed); err != nil {
		t.Fatalf("failed to decode booking list: %v", err)
	}
	if len(listed) != 1 || listed[0].ID != created.ID {
		t.Fatalf("expected the created booking in the room listing, got %+v", listed)
	}

	resp = httpClient.GET(t, "/bookings?date="+day+"&user="+user)
	testutil.AssertStatusCode(t, resp, http.StatusOK)
	testutil.AssertContains(t, resp, created.ID)
}

func TestOverlappingBookingRejected(t *testing.T) {
	room := uniqueRoom("ETNA")
	day := testDay(0)

	resp := httpClient.POST(t, "/bookings", bookingPayload(room, uniqueUser("alice"), day, "09:00", "10:00"))
	testutil.AssertStatusCode(t, resp, http.StatusCreated)

	resp = httpClient.POST(t, "/bookings", bookingPayload(room, uniqueUser("bob"), day, "09:30", "10:30"))
	testutil.AssertStatusCode(t, resp, http.StatusConflict)
	if msg := testutil.GetErrorMessage(t, resp); msg != "Booking conflict, room already booked for this time" {
		t.Fatalf("unexpected conflict message: %q", msg)
	}

	// The boundary instant belongs to the next slot only.
	resp = httpClient.POST(t, "/bookings", bookingPayload(room, uniqueUser("carol"), day, "10:00", "11:00"))
	testutil.AssertStatusCode(t, resp, http.StatusCreated)
}

func TestValidationErrors(t *testing.T) {
	day := testDay(0)

	resp := httpClient.POST(t, "/bookings", bookingPayload("lowercase", uniqueUser("alice"), day, "10:00", "11:00"))
	testutil.AssertStatusCode(t, resp, http.StatusBadRequest)
	testutil.AssertContains(t, resp, "Room must be in MACRO_CASE")

	resp = httpClient.POST(t, "/bookings", bookingPayload(uniqueRoom("DENALI"), uniqueUser("alice"), day, "10:05", "11:00"))
	testutil.AssertStatusCode(t, resp, http.StatusBadRequest)
	testutil.AssertContains(t, resp, "10 minute increments")

	resp = httpClient.GET(t, "/bookings?date="+day)
	testutil.AssertStatusCode(t, resp, http.StatusBadRequest)
	testutil.AssertContains(t, resp, "Provide exactly one filter, either room or user")
}

func TestDailyBookingLimit(t *testing.T) {
	user := uniqueUser("heavy")
	day := testDay(1)

	for i := 0; i < 5; i++ {
		payload := bookingPayload(uniqueRoom("LIMIT"), user, day, fmt.Sprintf("%02d:00", 9+i), fmt.Sprintf("%02d:00", 10+i))
		resp := httpClient.POST(t, "/bookings", payload)
		testutil.AssertStatusCode(t, resp, http.StatusCreated)
	}

	resp := httpClient.POST(t, "/bookings", bookingPayload(uniqueRoom("LIMIT"), user, day, "15:00", "16:00"))
	testutil.AssertStatusCode(t, resp, http.StatusBadRequest)
	testutil.AssertContains(t, resp, "bookings per day")
}

func TestConcurrentBookingCreation(t *testing.T) {
	room := uniqueRoom("RACE")
	day := testDay(2)

	const attempts = 5
	statuses := make([]int, attempts)

	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			payload := bookingPayload(room, uniqueUser(fmt.Sprintf("racer%d", i)), day, "14:00", "15:00")
			resp := httpClient.POST(t, "/bookings", payload)
			statuses[i] = resp.StatusCode
		}(i)
	}
	wg.Wait()

	created := 0
	for _, status := range statuses {
		switch status {
		case http.StatusCreated:
			created++
		case http.StatusConflict:
		default:
			t.Fatalf("unexpected status during concurrent creation: %d", status)
		}
	}
	if created != 1 {
		t.Fatalf("expected exactly one booking to win the slot, got %d", created)
	}
}
