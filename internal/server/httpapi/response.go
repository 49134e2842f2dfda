package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/dmitrijs2005/channelauth/internal/common"
	"github.com/dmitrijs2005/channelauth/internal/logging"
)

const maxBodyBytes = 1 << 20

// envelope is the body of every API response.
type envelope struct {
	StatusCode int                 `json:"statusCode"`
	Success    bool                `json:"success"`
	Message    string              `json:"message"`
	Data       any                 `json:"data"`
	Errors     []common.FieldError `json:"errors,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeData(w http.ResponseWriter, status int, message string, data any) {
	if data == nil {
		data = struct{}{}
	}
	writeJSON(w, status, envelope{StatusCode: status, Success: status < http.StatusBadRequest, Message: message, Data: data})
}

// writeError renders err. Only the message and field details of a
// *common.Error reach the client; the cause and anything else stay in logs.
func writeError(ctx context.Context, log logging.Logger, w http.ResponseWriter, err error) {
	var cerr *common.Error
	if !errors.As(err, &cerr) {
		log.Error(ctx, "unclassified error", "error", err)
		cerr = common.NewError(common.KindInternal, "internal server error")
	}

	status := cerr.Kind.StatusCode()
	message := cerr.Message
	if message == "" {
		message = http.StatusText(status)
	}
	writeJSON(w, status, envelope{StatusCode: status, Message: message, Errors: cerr.Details})
}

var errBadBody = common.NewError(common.KindInvalidInput, "invalid request body")

// decodeJSON reads a JSON object into dst. An empty body leaves dst as is
// when optional is true.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any, optional bool) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	err := json.NewDecoder(r.Body).Decode(dst)
	switch {
	case err == nil:
		return nil
	case optional && errors.Is(err, io.EOF):
		return nil
	}
	return errBadBody
}
