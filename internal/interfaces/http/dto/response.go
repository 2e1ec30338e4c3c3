package dto

// ErrorResponse is the error body every endpoint returns
type ErrorResponse struct {
	Error string `json:"error"`
}

// NewErrorResponse creates an error response
func NewErrorResponse(message string) ErrorResponse {
	return ErrorResponse{Error: message}
}

// SuccessResponse acknowledges a command
type SuccessResponse struct {
	Success bool `json:"success"`
}

// Response wraps informational payloads of the system endpoints
type Response struct {
	Success bool `json:"success"`
	Data    any  `json:"data,omitempty"`
}

// NewSuccessResponse creates a success response
func NewSuccessResponse(data any) Response {
	return Response{
		Success: true,
		Data:    data,
	}
}

// PageQuery selects a page of a pass-through listing
type PageQuery struct {
	Page int `form:"page" binding:"omitempty,min=1"`
}
