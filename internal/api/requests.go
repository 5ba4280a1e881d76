package api

import (
	"errors"
	"fmt"
	"net/http"

	settings "github.com/mldkyt/go-settings"
	"github.com/mldkyt/go-settings/internal/hydrate"
)

type valueRequest struct {
	Value any `json:"value"`
}

type actionRequest struct {
	Args map[string]any `json:"args"`
}

type evaluateRequest struct {
	Expression string `json:"expression"`
}

var (
	valueDecoder = hydrate.NewDecoder(
		hydrate.WithUseNumber[valueRequest](),
		hydrate.WithDisallowUnknownFields[valueRequest](),
		hydrate.WithPostHook[valueRequest](func(_ hydrate.Context, req *valueRequest) error {
			if req.Value == nil {
				return errors.New("value is required")
			}
			return nil
		}),
	)
	actionDecoder = hydrate.NewDecoder(
		hydrate.WithUseNumber[actionRequest](),
		hydrate.WithDisallowUnknownFields[actionRequest](),
	)
	evaluateDecoder = hydrate.NewDecoder(
		hydrate.WithDisallowUnknownFields[evaluateRequest](),
		hydrate.WithPostHook[evaluateRequest](func(_ hydrate.Context, req *evaluateRequest) error {
			if req.Expression == "" {
				return errors.New("expression is required")
			}
			return nil
		}),
	)
)

const maxBodyBytes = 1 << 20

func decodeBody[T any](w http.ResponseWriter, r *http.Request, decoder *hydrate.Decoder[T], ctx hydrate.Context) (T, error) {
	var zero T
	payload, err := hydrate.ReadPayload(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return zero, err
	}
	return decoder.Decode(ctx, payload)
}

func candidateArgs(raw map[string]any) (map[string]settings.Candidate, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	args := make(map[string]settings.Candidate, len(raw))
	for name, value := range raw {
		candidate, err := settings.CandidateFromJSON(value)
		if err != nil {
			return nil, fmt.Errorf("argument %s: %w", name, err)
		}
		args[name] = candidate
	}
	return args, nil
}
