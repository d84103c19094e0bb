package similarity

import (
	"github.com/custodia-labs/sercha-rag/cgo/cosine"
	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/logger"
)

// Select returns the backend for a preference.
// Native is used only when requested (or auto) and compiled in; everything
// else gets the portable backend.
func Select(pref domain.SimilarityBackend) driven.SimilarityBackend {
	switch pref {
	case domain.SimilarityNative, domain.SimilarityAuto:
		if cosine.Available() {
			logger.Debug("similarity: using native backend")
			return cosine.New()
		}
		if pref == domain.SimilarityNative {
			logger.Warn("similarity: native backend not available in this build, using portable")
		}
	}
	return NewPortable()
}
