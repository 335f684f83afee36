package api

import (
	"net/http"
	"testing"

	"github.com/fulldump/apitest"
	"github.com/fulldump/biff"

	"github.com/fulldump/inceptionview/collection"
	"github.com/fulldump/inceptionview/database"
	"github.com/fulldump/inceptionview/registry"
	"github.com/fulldump/inceptionview/service"
)

type viewCall struct {
	method string
	path   string
	body   interface{}
	status int
}

// viewCalls touch every view endpoint. Writes go last so reads still find
// the view.
var viewCalls = []viewCall{
	{"GET", "/v1/views", nil, http.StatusOK},
	{"GET", "/v1/views/fruits", nil, http.StatusOK},
	{"GET", "/v1/views/fruits:collations", nil, http.StatusOK},
	{"GET", "/v1/views/fruits:sequence", nil, http.StatusOK},
	{"GET", "/v1/views/fruits/documents/4", nil, http.StatusOK},
	{"POST", "/v1/views/fruits:scan", map[string]any{}, http.StatusOK},
	{"POST", "/v1/views/fruits:find", map[string]any{"keys": []string{"apple"}}, http.StatusOK},
	{"POST", "/v1/views/fruits:lookup", map[string]any{"keys": []string{"apple"}}, http.StatusOK},
	{"POST", "/v1/views/fruits:locate", map[string]any{"noteId": 4}, http.StatusOK},
	{"POST", "/v1/views/fruits:search", map[string]any{"query": "red"}, http.StatusOK},
	{"POST", "/v1/views/fruits:insert", map[string]any{"name": "banana"}, http.StatusCreated},
	{"POST", "/v1/views/fruits:patch", map[string]any{"noteId": 4, "patch": map[string]any{"color": "green"}}, http.StatusOK},
	{"POST", "/v1/views/fruits:remove", map[string]any{"noteIds": []int{4}}, http.StatusOK},
	{"POST", "/v1/views", map[string]any{"name": "nuts", "columns": []map[string]any{{"name": "name", "sorted": true}}}, http.StatusCreated},
	{"POST", "/v1/views/fruits:dropView", nil, http.StatusNoContent},
}

func TestAuthentication(t *testing.T) {

	biff.Alternative("Authentication", func(a *biff.A) {

		db := database.NewDatabase(&database.Config{
			Dir: t.TempDir(),
		})
		biff.AssertNil(db.Load())

		s := service.NewService(db, service.Options{Registry: registry.New()})
		_, err := s.CreateView(&collection.Definition{
			Name:    "fruits",
			Columns: []collection.Column{{Name: "name", Sorted: true}, {Name: "color"}},
		})
		biff.AssertNil(err)
		fruits, _ := s.Collection("fruits")
		fruits.Insert(map[string]any{"name": "apple", "color": "red"})

		apiKey := "my-key"
		apiSecret := "my-secret"

		b := Build(s, Options{Version: "test", ApiKey: apiKey, ApiSecret: apiSecret})
		b.WithInterceptors(
			PrettyErrorInterceptor,
		)

		api := apitest.NewWithHandler(b)

		request := func(c viewCall) *apitest.Request {
			req := api.Request(c.method, c.path)
			if c.body != nil {
				req = req.WithBodyJson(c.body)
			}
			return req
		}

		a.Alternative("Missing headers", func(a *biff.A) {
			resp := api.Request("GET", "/v1/views").Do()
			biff.AssertEqual(resp.StatusCode, http.StatusUnauthorized)
			biff.AssertEqualJson(resp.BodyJson(), map[string]any{
				"error": map[string]any{
					"message":     "unauthorized",
					"description": "user is not authenticated",
				},
			})
		})

		a.Alternative("Every view endpoint is protected", func(a *biff.A) {
			for _, c := range viewCalls {
				resp := request(c).
					WithHeader("X-Api-Key", apiKey).
					Do()
				if resp.StatusCode != http.StatusUnauthorized {
					t.Fatalf("%s %s: status %d, want 401", c.method, c.path, resp.StatusCode)
				}
			}

			// nothing was written
			biff.AssertEqual(fruits.Len(), 1)
			biff.AssertEqual(fruits.Sequence(), uint32(1))
			biff.AssertEqual(db.ListViews(), []string{"fruits"})
		})

		a.Alternative("Wrong credentials", func(a *biff.A) {
			for _, headers := range [][2]string{
				{"wrong-key", apiSecret},
				{apiKey, "wrong-secret"},
				{apiKey, ""},
				{"", apiSecret},
			} {
				resp := api.Request("POST", "/v1/views/fruits:scan").
					WithHeader("X-Api-Key", headers[0]).
					WithHeader("X-Api-Secret", headers[1]).
					Do()
				biff.AssertEqual(resp.StatusCode, http.StatusUnauthorized)
			}
		})

		a.Alternative("Correct credentials", func(a *biff.A) {
			for _, c := range viewCalls {
				resp := request(c).
					WithHeader("X-Api-Key", apiKey).
					WithHeader("X-Api-Secret", apiSecret).
					Do()
				if resp.StatusCode != c.status {
					t.Fatalf("%s %s: status %d, want %d: %s", c.method, c.path, resp.StatusCode, c.status, resp.BodyString())
				}
			}
			biff.AssertEqual(db.ListViews(), []string{"nuts"})
		})

		a.Alternative("Release and openapi are public", func(a *biff.A) {
			resp := api.Request("GET", "/release").Do()
			biff.AssertEqual(resp.StatusCode, http.StatusOK)
			biff.AssertEqual(resp.BodyJson(), "test")

			resp = api.Request("GET", "/openapi.json").Do()
			biff.AssertEqual(resp.StatusCode, http.StatusOK)
		})
	})
}

func TestAuthentication_Disabled(t *testing.T) {

	db := database.NewDatabase(&database.Config{Dir: t.TempDir()})
	biff.AssertNil(db.Load())
	s := service.NewService(db, service.Options{Registry: registry.New()})

	api := apitest.NewWithHandler(Build(s, Options{Version: "test"}))

	resp := api.Request("GET", "/v1/views").
		WithHeader("X-Api-Key", "anything").
		Do()
	biff.AssertEqual(resp.StatusCode, http.StatusOK)
}
