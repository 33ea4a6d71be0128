package reservation

import "fmt"

// Guest-facing notification text. Delivery (SMS, email) happens elsewhere.

func ConfirmationText(r Reservation, restaurantName string) string {
	return fmt.Sprintf("TableMate: Reservation confirmed! %s - %s on %s at %s for %d. See you soon!",
		r.Code, restaurantName, r.DateLabel(), r.Time, r.PartySize)
}

func ModificationText(r Reservation, restaurantName string) string {
	return fmt.Sprintf("TableMate: Reservation %s updated - %s on %s at %s for %d.",
		r.Code, restaurantName, r.DateLabel(), r.Time, r.PartySize)
}

func CancellationText(code, restaurantName string) string {
	return fmt.Sprintf("TableMate: Reservation %s at %s has been cancelled.", code, restaurantName)
}

func WaitlistText(restaurantName string, position, waitMinutes int) string {
	return fmt.Sprintf("TableMate: You're #%d on the waitlist at %s. Est. wait: ~%d minutes.",
		position, restaurantName, waitMinutes)
}

func SeatedText(r Reservation, restaurantName string) string {
	return fmt.Sprintf("TableMate: Good news %s, your table at %s is ready (table %s). Code %s.",
		r.GuestName, restaurantName, r.TableID, r.Code)
}
