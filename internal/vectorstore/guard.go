package vectorstore

import "fmt"

// requireTenantScope enforces §4.5's mandatory tenant scoping: every
// search/delete against user_documents must carry a non-empty tenant_id
// predicate. This is defence in depth — the query engine (C8) is expected
// to have already injected it — so a violation here indicates a caller
// bypassing C8 entirely.
func requireTenantScope(collection string, where Where) error {
	if collection != CollectionUserDocuments {
		return nil
	}
	tenantID, ok := where["tenant_id"]
	if !ok {
		return ErrMissingTenantFilter
	}
	s, ok := tenantID.(string)
	if !ok || s == "" {
		return ErrMissingTenantFilter
	}
	return nil
}

func validateK(k int) error {
	if k < 1 || k > 50 {
		return fmt.Errorf("%w: got %d", ErrInvalidK, k)
	}
	return nil
}

func validateWhere(where Where) error {
	for k, v := range where {
		switch v.(type) {
		case string, int, int32, int64, float32, float64, bool:
		default:
			return fmt.Errorf("%w: key %q has type %T", ErrInvalidWhere, k, v)
		}
	}
	return nil
}
