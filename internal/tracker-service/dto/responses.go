package dto

type ErrorResponse struct {
	Error string `json:"error"`
}

type BetStatusResponse struct {
	BetID  string `json:"betId"`
	Status string `json:"status"`
}

type DeletedResponse struct {
	BetID   string `json:"betId"`
	Deleted bool   `json:"deleted"`
}
