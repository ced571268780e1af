// Package api is the operator HTTP surface over the invoice service.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/labstack/echo"
	echo_middleware "github.com/labstack/echo/middleware"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/gebv/invoicer"
	"github.com/gebv/invoicer/httputils"
	"github.com/gebv/invoicer/provider/paypal"
	"github.com/gebv/invoicer/services/invoices"
)

// Invoicer operations exposed over HTTP.
type Invoicer interface {
	Issue(ctx context.Context, email, productID string) (*invoices.Issued, error)
	Resend(ctx context.Context, invoiceID string) (json.RawMessage, error)
	Status(ctx context.Context, invoiceID string) (*paypal.Invoice, error)
}

type CreateInvoiceRequest struct {
	Email   string `json:"email"`
	Product string `json:"product"`
}

type CreateInvoiceResponse struct {
	InvoiceID string `json:"invoice_id"`
	Status    string `json:"status"`
	PayLink   string `json:"pay_link,omitempty"`
}

func NewServer(inv Invoicer, appVersion string) *Server {
	return &Server{
		inv:        inv,
		appVersion: appVersion,
		l:          zap.L().Named("api"),
	}
}

type Server struct {
	inv        Invoicer
	appVersion string
	l          *zap.Logger
}

// NewEcho returns echo instance with the server routes and /metrics of g.
func NewEcho(s *Server, g prometheus.Gatherer) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Use(echo_middleware.Recover())
	e.Use(echo_middleware.BodyLimit("64K"))
	e.Use(s.requestInfo)
	e.GET("/metrics", echo.WrapHandler(httputils.MetricsHandler(g)))
	s.Register(e)
	return e
}

func (s *Server) Register(e *echo.Echo) {
	e.POST("/invoices", s.createInvoice)
	e.GET("/invoices/:id", s.getInvoice)
	e.POST("/invoices/:id/send", s.sendInvoice)
}

func (s *Server) requestInfo(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, ri := httputils.SetRequestInfo(c.Request(), s.appVersion)
		c.SetRequest(c.Request().WithContext(ctx))
		c.Response().Header().Set("X-Request-Id", ri.RequestID)
		return next(c)
	}
}

func (s *Server) createInvoice(c echo.Context) error {
	var req CreateInvoiceRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}
	res, err := s.inv.Issue(c.Request().Context(), req.Email, req.Product)
	if err != nil {
		return s.httpError(c, err)
	}
	return c.JSON(http.StatusCreated, &CreateInvoiceResponse{
		InvoiceID: res.InvoiceID,
		Status:    res.Status,
		PayLink:   res.PayLink,
	})
}

func (s *Server) getInvoice(c echo.Context) error {
	inv, err := s.inv.Status(c.Request().Context(), c.Param("id"))
	if err != nil {
		return s.httpError(c, err)
	}
	if len(inv.Raw) == 0 {
		return c.JSON(http.StatusOK, inv)
	}
	return c.JSONBlob(http.StatusOK, inv.Raw)
}

func (s *Server) sendInvoice(c echo.Context) error {
	raw, err := s.inv.Resend(c.Request().Context(), c.Param("id"))
	if err != nil {
		return s.httpError(c, err)
	}
	if len(raw) == 0 {
		return c.NoContent(http.StatusAccepted)
	}
	return c.JSONBlob(http.StatusAccepted, raw)
}

func (s *Server) httpError(c echo.Context, err error) error {
	code := statusCode(err)
	ri := httputils.GetRequestInfo(c.Request().Context())
	l := s.l.With(zap.String("path", c.Path()), zap.String("request_id", ri.RequestID), zap.Error(err))
	if code >= http.StatusInternalServerError {
		l.Warn("Request failed", zap.Int("code", code))
	} else {
		l.Debug("Request rejected", zap.Int("code", code))
	}
	return echo.NewHTTPError(code, err.Error())
}

func statusCode(err error) int {
	var apiErr *invoicer.APIError
	var sendErr *invoices.SendError
	switch {
	case errors.Is(err, invoices.ErrBadRequest):
		return http.StatusBadRequest
	case errors.As(err, &sendErr):
		return http.StatusBadGateway
	case errors.Is(err, invoicer.ErrNotFound):
		return http.StatusNotFound
	case errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound:
		return http.StatusNotFound
	case errors.Is(err, invoicer.ErrAuth):
		return http.StatusServiceUnavailable
	case errors.As(err, &apiErr) && apiErr.Unauthorized():
		return http.StatusServiceUnavailable
	case errors.Is(err, invoicer.ErrConfig):
		return http.StatusInternalServerError
	case errors.Is(err, invoicer.ErrAPI), errors.Is(err, invoicer.ErrParse):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}
