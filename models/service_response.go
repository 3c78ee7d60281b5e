package models

// ServiceResponse wraps every json payload with the strategy that produced it and how many
// epochs it covers, so a client can tell when the portfolio has moved on
type ServiceResponse[T any] struct {
	Strategy string `json:"strategy"`
	Epochs   int    `json:"epochs"`
	Data     *T     `json:"data"`
	Error    string `json:"error,omitempty"`
}

func GetServiceResponseOk[T any](strategy string, epochs int, data *T) ServiceResponse[T] {
	return ServiceResponse[T]{
		Strategy: strategy,
		Epochs:   epochs,
		Data:     data,
	}
}

func GetServiceResponseError(strategy string, epochs int, errorMessage string) ServiceResponse[any] {
	return ServiceResponse[any]{
		Strategy: strategy,
		Epochs:   epochs,
		Error:    errorMessage,
	}
}
