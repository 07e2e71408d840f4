package security

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/iamcore/iamcore/pkg/domain"
	esdomain "github.com/iamcore/iamcore/pkg/eventsourcing/domain"
)

func TestClassifyForCaller_PreservesExistingClassification(t *testing.T) {
	original := domain.NewPermissionDenied("ORG-007", "not an org admin")

	classified := ClassifyForCaller(original, "IGNORED")

	assert.Same(t, original, classified)
}

func TestClassifyForCaller_MapsConcurrencyConflict(t *testing.T) {
	wrapped := errors.Join(esdomain.ErrConcurrencyConflict)

	classified := ClassifyForCaller(wrapped, "USER-010")

	assert.Equal(t, domain.KindConcurrencyConflict, classified.Kind)
}

func TestClassifyForCaller_MapsEventNotFound(t *testing.T) {
	classified := ClassifyForCaller(esdomain.ErrEventNotFound, "EVT-001")
	assert.Equal(t, domain.KindNotFound, classified.Kind)
}

func TestClassifyForCaller_UnknownErrorBecomesInternal(t *testing.T) {
	classified := ClassifyForCaller(errors.New("boom"), "SYS-000")
	assert.Equal(t, domain.KindInternal, classified.Kind)
}

func TestClassifyForCaller_NilErrorReturnsNil(t *testing.T) {
	assert.Nil(t, ClassifyForCaller(nil, "X"))
}
