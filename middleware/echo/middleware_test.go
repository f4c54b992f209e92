package echomw_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/reoring/formbind"
	"github.com/reoring/formbind/middleware"
	echomw "github.com/reoring/formbind/middleware/echo"
	"github.com/reoring/formbind/model"
)

func TestValidateJSON(t *testing.T) {
	shape := model.Object(
		model.Prop("name", model.String().Constrain("NotBlank")),
		model.Prop("age", model.Number().Constrain("Min", "value", 18)),
	)
	opts := middleware.DefaultOptions()
	opts.Parameter = "person"

	e := echo.New()
	e.POST("/people", func(c echo.Context) error {
		v, ok := echomw.GetValue(c)
		if !ok {
			return c.NoContent(http.StatusInternalServerError)
		}
		return c.JSON(http.StatusOK, v)
	}, echomw.ValidateJSON(shape, opts))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/people", strings.NewReader(`{"name":" ","age":12}`))
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	ve, ok := formbind.ParseEndpointError(rec.Body.Bytes()).(*formbind.EndpointValidationError)
	if !ok || len(ve.ValidationErrorData) != 2 {
		t.Fatalf("unexpected body %s", rec.Body.String())
	}
	if ve.ValidationErrorData[0].ParameterName != "person.name" || ve.ValidationErrorData[1].ParameterName != "person.age" {
		t.Fatalf("unexpected parameter names %+v", ve.ValidationErrorData)
	}

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/people", strings.NewReader(`{"name":"Ann","age":30}`))
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"Ann"`) {
		t.Fatalf("unexpected response %d %s", rec.Code, rec.Body.String())
	}
}
