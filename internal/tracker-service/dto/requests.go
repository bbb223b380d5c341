package dto

type TrackBetRequest struct {
	BookingCode string `json:"bookingCode"`
	Platform    string `json:"platform"` // ex: "sportybet"
}

type UpdateBetStatusRequest struct {
	Status string `json:"status"` // pending | live | settled
}

type CreateSubscriptionRequest struct {
	Channel string `json:"channel"` // console | webhook | telegram
	Target  string `json:"target"`  // URL do webhook ou chat id do telegram
}
