// Package teams implements [drip.Sender] for the Bot Framework connector
// REST API, posting stream updates into a Teams conversation.
//
// Activities are posted to {serviceURL}/v3/conversations/{id}/activities
// with a bearer token. The connector assigns each created activity an ID;
// the first one becomes the exchange's stream ID.
package teams

// apiResource is the JSON body returned for a created activity.
type apiResource struct {
	ID string `json:"id"`
}

// apiErrorResponse is the JSON body returned on non-2xx HTTP responses.
type apiErrorResponse struct {
	Error apiErrorDetail `json:"error"`
}

type apiErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
