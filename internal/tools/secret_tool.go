package tools

import (
	"fmt"

	"github.com/l4b4r4b4b4/legal-mcp-go/internal/cache"
)

// secretNamespace isolates the EXECUTE-permission demonstration from every
// other cached tool result, so a plain get_cached_result call can never
// read a stored secret's raw value back out (§4.9).
const secretNamespace = "secret"

// secretPolicy grants agents EXECUTE only: a stored secret may be used
// inside compute_with_secret, but the raw value never flows back to the
// caller through get_cached_result.
var secretPolicy = cache.AccessPolicy{UserPerms: cache.PermFull, AgentPerms: cache.PermExecute}

// StoreSecretInput validates store_secret (§4.9).
type StoreSecretInput struct {
	Value string
}

// StoreSecretOutput returns only the handle; never the value.
type StoreSecretOutput struct {
	RefID string `json:"ref_id"`
}

// StoreSecret stores value under an EXECUTE-only policy and returns its
// handle. The cache entry's preview is never returned to the caller.
func (s *Surface) StoreSecret(in StoreSecretInput) (StoreSecretOutput, error) {
	if err := requireNonEmpty("value", in.Value); err != nil {
		return StoreSecretOutput{}, err
	}

	entry, err := s.cache.Set(secretNamespace, "", in.Value, cache.SetOptions{
		Strategy: cache.PreviewTruncate,
		Policy:   &secretPolicy,
	})
	if err != nil {
		return StoreSecretOutput{}, fmt.Errorf("store_secret: %w", err)
	}
	return StoreSecretOutput{RefID: entry.RefID}, nil
}

// ComputeWithSecretInput validates compute_with_secret (§4.9).
type ComputeWithSecretInput struct {
	SecretRef  string
	Multiplier float64
}

// ComputeWithSecretOutput carries only the computed result.
type ComputeWithSecretOutput struct {
	Result float64 `json:"result"`
}

// ComputeWithSecret resolves secret_ref internally via C6's EXECUTE path
// and multiplies the stored numeric value by multiplier, demonstrating
// that a cached secret can feed a computation without the agent ever
// observing the raw value (§4.6 "EXECUTE: can be used as an argument to a
// computation that resolves it internally").
func (s *Surface) ComputeWithSecret(in ComputeWithSecretInput) (ComputeWithSecretOutput, error) {
	if err := requireNonEmpty("secret_ref", in.SecretRef); err != nil {
		return ComputeWithSecretOutput{}, err
	}

	raw, err := s.cache.Execute(in.SecretRef, cache.CallerAgent, func(value any) (any, error) {
		str, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("stored secret is not numeric")
		}
		var num float64
		if _, err := fmt.Sscanf(str, "%g", &num); err != nil {
			return nil, fmt.Errorf("stored secret is not numeric: %w", err)
		}
		return num * in.Multiplier, nil
	})
	if err != nil {
		return ComputeWithSecretOutput{}, fmt.Errorf("compute_with_secret: %w", err)
	}

	result, _ := raw.(float64)
	return ComputeWithSecretOutput{Result: result}, nil
}
