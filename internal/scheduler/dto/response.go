package dto

// Response is the envelope every API endpoint returns.
type Response struct {
	Data interface{} `json:"data"`
}

// ErrorResponse is returned on any API failure.
type ErrorResponse struct {
	Error string `json:"error"`
}
