package handler

import (
	"errors"
	"strconv"

	"recruitflow-go/internal/apperr"
	"recruitflow-go/internal/logger"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"gorm.io/gorm"
)

// writeError renders a classified error as `{"detail": ...}` with the
// status its kind maps to. Unclassified errors become 500 with the
// underlying message surfaced for operator diagnosis.
func writeError(c *app.RequestContext, err error) {
	status := consts.StatusInternalServerError

	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(consts.StatusNotFound, utils.H{"detail": "Recurso no encontrado"})
		return
	}

	switch apperr.KindOf(err) {
	case apperr.KindValidation:
		status = consts.StatusBadRequest
	case apperr.KindUnauthorized:
		status = consts.StatusUnauthorized
		c.Header("WWW-Authenticate", "Bearer")
	case apperr.KindForbidden:
		status = consts.StatusForbidden
	case apperr.KindNotFound:
		status = consts.StatusNotFound
	case apperr.KindConflict:
		status = consts.StatusConflict
	case apperr.KindGateway:
		status = consts.StatusBadGateway
	case apperr.KindGatewayTimeout:
		status = consts.StatusGatewayTimeout
	}

	if status == consts.StatusInternalServerError {
		logger.Error().Err(err).Str("path", string(c.Path())).Msg("request failed")
	}
	c.JSON(status, utils.H{"detail": apperr.DetailOf(err)})
}

// uintParam parses a numeric path parameter.
func uintParam(c *app.RequestContext, name string) (uint, error) {
	raw := c.Param(name)
	v, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, apperr.New(apperr.KindValidation, "Parámetro %s inválido", name)
	}
	return uint(v), nil
}

// optionalUintQuery parses an optional numeric query parameter.
func optionalUintQuery(c *app.RequestContext, name string) (*uint, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return nil, apperr.New(apperr.KindValidation, "Parámetro %s inválido", name)
	}
	u := uint(v)
	return &u, nil
}

// optionalBoolQuery parses an optional boolean query parameter.
func optionalBoolQuery(c *app.RequestContext, name string) (*bool, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, apperr.New(apperr.KindValidation, "Parámetro %s inválido", name)
	}
	return &v, nil
}

// optionalFloatQuery parses an optional numeric query parameter.
func optionalFloatQuery(c *app.RequestContext, name string) (*float64, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, apperr.New(apperr.KindValidation, "Parámetro %s inválido", name)
	}
	return &v, nil
}

// intQueryDefault parses an integer query parameter with a default.
func intQueryDefault(c *app.RequestContext, name string, def int) int {
	raw := c.Query(name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return def
	}
	return v
}
