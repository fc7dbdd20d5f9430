package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindNotFound, KindOf(New(KindNotFound, "Proceso no encontrado")))
	assert.Equal(t, KindInternal, KindOf(errors.New("plain")))

	wrapped := fmt.Errorf("outer: %w", New(KindConflict, "duplicado"))
	assert.Equal(t, KindConflict, KindOf(wrapped))
}

func TestDetailOf(t *testing.T) {
	assert.Equal(t, "Proceso no encontrado", DetailOf(New(KindNotFound, "Proceso no encontrado")))
	assert.Equal(t, "plain failure", DetailOf(errors.New("plain failure")))
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	err := Wrap(KindGateway, cause, "Error al conectar con el motor de flujos (%s)", "list-files")

	assert.True(t, errors.Is(err, cause))
	assert.Equal(t, KindGateway, KindOf(err))
	assert.Equal(t, "Error al conectar con el motor de flujos (list-files)", DetailOf(err))
	assert.Contains(t, err.Error(), "connection refused")
}
