package controllers

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAdminTestApp() *fiber.App {
	app := fiber.New()
	app.Post("/admin/customers", HandleAdminSaveCustomer)
	return app
}

func postAdminCustomer(t *testing.T, app *fiber.App, body string) int {
	t.Helper()
	req := httptest.NewRequest("POST", "/admin/customers", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	return resp.StatusCode
}

func TestAdminSaveCustomerRejectsMissingEmail(t *testing.T) {
	app := newAdminTestApp()
	assert.Equal(t, fiber.StatusBadRequest, postAdminCustomer(t, app, `{"name":"Someone"}`))
}

func TestAdminSaveCustomerRejectsMalformedEmail(t *testing.T) {
	app := newAdminTestApp()
	assert.Equal(t, fiber.StatusBadRequest, postAdminCustomer(t, app, `{"email":"not-an-email"}`))
}

func TestAdminSaveCustomerRejectsOverlongName(t *testing.T) {
	app := newAdminTestApp()
	body := `{"email":"a@b.com","name":"` + strings.Repeat("x", 151) + `"}`
	assert.Equal(t, fiber.StatusBadRequest, postAdminCustomer(t, app, body))
}

func TestParseSalesCSVSkipsShortRows(t *testing.T) {
	// Ragged trailing lines must not blow up when the email column sits
	// beyond the row's last field.
	input := "A;B;Cliente / E-mail\n" +
		"x;y\n" +
		"1;2;Good@Example.com\n" +
		";;\n"
	rows, skipped, err := parseSalesCSV(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, 2, skipped)
	require.Len(t, rows, 1)
	assert.Equal(t, "good@example.com", rows[0].Email)
}

func TestParseSalesCSVReadsContactColumns(t *testing.T) {
	input := "Cliente / E-mail;Cliente / Nome;Cliente / Fones;Fatura;ID do Produto;Data de Pagamento\n" +
		"a@b.com;Maria;11 99999-0000;inv-1;1001;15/03/2026\n"
	rows, skipped, err := parseSalesCSV(strings.NewReader(input))
	require.NoError(t, err)
	assert.Zero(t, skipped)
	require.Len(t, rows, 1)
	assert.Equal(t, "Maria", rows[0].Name)
	assert.Equal(t, "inv-1", rows[0].Invoice)
	assert.Equal(t, "1001", rows[0].Product)
	assert.Equal(t, 2026, rows[0].PaidAt.Year())
}

func TestParseSalesCSVRequiresEmailColumn(t *testing.T) {
	_, _, err := parseSalesCSV(strings.NewReader("Fatura;ID do Produto\ninv-1;1001\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Cliente / E-mail")
}
