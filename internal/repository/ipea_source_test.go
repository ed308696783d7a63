package repository

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"BrentCast/internal/domain/models"
	xhttp "BrentCast/pkg/http"
)

const ipeaPage = `<html><body>
<table class="dxgvControl"><tr><td>
<table class="dxgvTable" id="grid">
  <tr class="dxgvHeader"><td>Data</td><td>Preço - petróleo bruto - Brent (FOB)</td></tr>
  <tr><td>03/01/2005</td><td>40,79</td></tr>
  <tr><td>04/01/2005</td><td>40,11</td></tr>
  <tr><td>04/01/2005</td><td>40,20</td></tr>
  <tr><td>31/12/2004</td><td>39,01</td></tr>
  <tr><td colspan="2">1 2 3 ...</td></tr>
</table>
</td></tr></table>
</body></html>`

func serve(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestIpeaSourceParsesTable(t *testing.T) {
	srv := serve(t, http.StatusOK, ipeaPage)
	from := time.Date(2005, 1, 1, 0, 0, 0, 0, time.UTC)
	src := NewIpeaSource(xhttp.NewClient(xhttp.WithTimeout(time.Second)), srv.URL, from, time.Time{}, nil)

	series, err := src.Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, series.Len())
	assert.Equal(t, "ipea", series.Source)
	assert.Equal(t, from.AddDate(0, 0, 2), series.First())
	assert.Equal(t, 40.79, series.Points[0].Price)
	// duplicate date keeps the last value
	assert.Equal(t, 40.20, series.Points[1].Price)
}

func TestIpeaSourceUpstreamErrors(t *testing.T) {
	cases := map[string]*httptest.Server{
		"status":   serve(t, http.StatusBadGateway, "oops"),
		"no table": serve(t, http.StatusOK, "<html><body><p>maintenance</p></body></html>"),
		"empty":    serve(t, http.StatusOK, `<table class="dxgvTable"><tr><td>Data</td><td>x</td></tr></table>`),
	}
	for name, srv := range cases {
		t.Run(name, func(t *testing.T) {
			src := NewIpeaSource(xhttp.NewClient(), srv.URL, time.Time{}, time.Time{}, nil)
			_, err := src.Load(context.Background())
			var ue *models.UpstreamUnavailableError
			require.True(t, errors.As(err, &ue), "got %v", err)
			assert.Equal(t, "ipea", ue.Source)
		})
	}
}

func TestIpeaSourceMalformedPrice(t *testing.T) {
	srv := serve(t, http.StatusOK, `<table class="dxgvTable"><tr><td>03/01/2005</td><td>n/d</td></tr></table>`)
	src := NewIpeaSource(xhttp.NewClient(), srv.URL, time.Time{}, time.Time{}, nil)
	_, err := src.Load(context.Background())
	var dv *models.DataValidationError
	require.True(t, errors.As(err, &dv))
	assert.Equal(t, "price", dv.Field)
}
