package service

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/fulldump/apitest"
	"github.com/fulldump/biff"
	json2 "github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
)

type JSON = map[string]interface{}

// Lines decodes a JSON lines body.
func Lines(body string) []interface{} {
	result := []interface{}{}
	dec := jsontext.NewDecoder(strings.NewReader(body))
	for {
		var item interface{}
		err := json2.UnmarshalDecode(dec, &item)
		if errors.Is(err, io.EOF) {
			return result
		}
		if err != nil {
			panic(err)
		}
		result = append(result, item)
	}
}

func noteIds(body string) []interface{} {
	result := []interface{}{}
	for _, line := range Lines(body) {
		result = append(result, line.(JSON)["noteId"])
	}
	return result
}

func Acceptance(a *biff.A, apiRequest func(method, path string) *apitest.Request) {

	a.Alternative("Create view", func(a *biff.A) {
		resp := apiRequest("POST", "/views").
			WithBodyJson(JSON{
				"name": "fruits",
				"columns": []JSON{
					{"name": "name", "sorted": true},
					{"name": "price", "type": "number", "resortAscending": true},
					{"name": "color"},
				},
			}).Do()
		Save(resp, "Create view", `
			A view is a sorted list of documents. Columns marked as ´resortAscending´
			or ´resortDescending´ get an alternative collation.
		`)

		biff.AssertEqual(resp.StatusCode, http.StatusCreated)
		expectedView := JSON{
			"name":     "fruits",
			"total":    0,
			"sequence": 0,
			"columns": []JSON{
				{"name": "name", "sorted": true},
				{"name": "price", "type": "number", "resortAscending": true},
				{"name": "color"},
			},
			"collations": []JSON{
				{"slot": 1, "item": "price", "direction": "ascending"},
			},
		}
		biff.AssertEqualJson(resp.BodyJson(), expectedView)

		a.Alternative("Retrieve view", func(a *biff.A) {
			resp := apiRequest("GET", "/views/fruits").Do()
			Save(resp, "Retrieve view", ``)

			biff.AssertEqual(resp.StatusCode, http.StatusOK)
			biff.AssertEqualJson(resp.BodyJson(), expectedView)
		})

		a.Alternative("List views", func(a *biff.A) {
			resp := apiRequest("GET", "/views").Do()
			Save(resp, "List views", ``)

			biff.AssertEqual(resp.StatusCode, http.StatusOK)
			biff.AssertEqualJson(resp.BodyJson(), []JSON{expectedView})
		})

		a.Alternative("Create view again", func(a *biff.A) {
			resp := apiRequest("POST", "/views").
				WithBodyJson(JSON{
					"name":    "fruits",
					"columns": []JSON{{"name": "name"}},
				}).Do()

			biff.AssertEqual(resp.StatusCode, http.StatusConflict)
		})

		a.Alternative("Drop view", func(a *biff.A) {
			resp := apiRequest("POST", "/views/fruits:dropView").Do()
			Save(resp, "Drop view", ``)

			biff.AssertEqual(resp.StatusCode, http.StatusNoContent)

			a.Alternative("Get dropped view", func(a *biff.A) {
				resp := apiRequest("GET", "/views/fruits").Do()
				Save(resp, "Get view - not found", ``)

				biff.AssertEqual(resp.StatusCode, http.StatusNotFound)
			})
		})

		a.Alternative("Insert into a missing view", func(a *biff.A) {
			resp := apiRequest("POST", "/views/vegetables:insert").
				WithBodyJson(JSON{"name": "carrot"}).Do()

			biff.AssertEqual(resp.StatusCode, http.StatusNotFound)
		})

		a.Alternative("Insert many", func(a *biff.A) {

			myDocuments := []JSON{
				{"name": "apple", "price": 3, "color": "red"},
				{"name": "banana", "price": 1, "color": "yellow"},
				{"name": "cherry", "price": 2, "color": "red"},
				{"name": "date", "price": 4, "color": "brown"},
			}

			body := ""
			for _, myDocument := range myDocuments {
				line, _ := json2.Marshal(myDocument)
				body += string(line) + "\n"
			}
			resp := apiRequest("POST", "/views/fruits:insert").
				WithBodyString(body).Do()
			Save(resp, "Insert many", `
				Documents are sent as JSON lines. Every inserted document gets a
				note id and a unid.
			`)

			biff.AssertEqual(resp.StatusCode, http.StatusCreated)
			biff.AssertEqualJson(noteIds(resp.BodyString()), []int{4, 8, 12, 16})
			inserted := Lines(resp.BodyString())

			a.Alternative("Insert a response", func(a *biff.A) {
				parent := inserted[0].(JSON)["unid"].(string)
				resp := apiRequest("POST", "/views/fruits:insert").
					WithQuery("parent", parent).
					WithBodyJson(JSON{"name": "apple pie", "price": 9, "color": "golden"}).Do()
				Save(resp, "Insert a response", `
					Documents inserted with ´?parent=<unid>´ are responses to that
					document.
				`)

				biff.AssertEqual(resp.StatusCode, http.StatusCreated)
				biff.AssertEqualJson(noteIds(resp.BodyString()), []int{20})

				resp = apiRequest("GET", "/views/fruits/documents/20").Do()
				document := resp.BodyJsonMap()["document"].(JSON)
				biff.AssertEqual(document["$ref"], parent)
			})

			a.Alternative("Insert a response to a missing parent", func(a *biff.A) {
				resp := apiRequest("POST", "/views/fruits:insert").
					WithQuery("parent", "00000000-0000-0000-0000-000000000000").
					WithBodyJson(JSON{"name": "orphan"}).Do()

				biff.AssertEqual(resp.StatusCode, http.StatusNotFound)
			})

			a.Alternative("Scan", func(a *biff.A) {
				resp := apiRequest("POST", "/views/fruits:scan").Do()
				Save(resp, "Scan", ``)

				biff.AssertEqual(resp.StatusCode, http.StatusOK)
				biff.AssertEqualJson(Lines(resp.BodyString()), []JSON{
					{"noteId": 4, "position": "1", "columns": JSON{"name": "apple", "price": 3, "color": "red"}},
					{"noteId": 8, "position": "2", "columns": JSON{"name": "banana", "price": 1, "color": "yellow"}},
					{"noteId": 12, "position": "3", "columns": JSON{"name": "cherry", "price": 2, "color": "red"}},
					{"noteId": 16, "position": "4", "columns": JSON{"name": "date", "price": 4, "color": "brown"}},
				})
			})

			a.Alternative("Scan by price", func(a *biff.A) {
				resp := apiRequest("POST", "/views/fruits:scan").
					WithBodyJson(JSON{
						"sortBy": "price",
						"fields": []string{"noteId"},
					}).Do()
				Save(resp, "Scan - resorted", ``)

				biff.AssertEqual(resp.StatusCode, http.StatusOK)
				biff.AssertEqualJson(noteIds(resp.BodyString()), []int{8, 12, 4, 16})
			})

			a.Alternative("Scan backwards", func(a *biff.A) {
				resp := apiRequest("POST", "/views/fruits:scan").
					WithBodyJson(JSON{
						"start":     "3",
						"direction": "prev",
						"limit":     2,
						"fields":    []string{"noteId"},
					}).Do()
				Save(resp, "Scan - backwards", ``)

				biff.AssertEqual(resp.StatusCode, http.StatusOK)
				biff.AssertEqualJson(noteIds(resp.BodyString()), []int{12, 8})
			})

			a.Alternative("Scan with filter", func(a *biff.A) {
				resp := apiRequest("POST", "/views/fruits:scan").
					WithBodyJson(JSON{
						"filter": JSON{"color": "red"},
						"fields": []string{"noteId"},
					}).Do()
				Save(resp, "Scan - filter", ``)

				biff.AssertEqual(resp.StatusCode, http.StatusOK)
				biff.AssertEqualJson(noteIds(resp.BodyString()), []int{4, 12})
			})

			a.Alternative("Scan with documents", func(a *biff.A) {
				resp := apiRequest("POST", "/views/fruits:scan").
					WithBodyJson(JSON{
						"limit":     1,
						"fields":    []string{"noteId"},
						"documents": true,
					}).Do()

				biff.AssertEqual(resp.StatusCode, http.StatusOK)
				lines := Lines(resp.BodyString())
				biff.AssertEqual(len(lines), 1)
				document := lines[0].(JSON)["document"].(JSON)
				biff.AssertEqual(document["name"], "apple")
			})

			a.Alternative("Scan with a wrong direction", func(a *biff.A) {
				resp := apiRequest("POST", "/views/fruits:scan").
					WithBodyJson(JSON{"direction": "sideways"}).Do()

				biff.AssertEqual(resp.StatusCode, http.StatusBadRequest)
			})

			a.Alternative("Find", func(a *biff.A) {
				resp := apiRequest("POST", "/views/fruits:find").
					WithBodyJson(JSON{
						"mode": "firstEqual",
						"keys": []string{"cherry"},
					}).Do()
				Save(resp, "Find", ``)

				biff.AssertEqual(resp.StatusCode, http.StatusOK)
				biff.AssertEqualJson(resp.BodyJson(), JSON{"position": "3", "count": 1, "exact": true})
			})

			a.Alternative("Find not found", func(a *biff.A) {
				resp := apiRequest("POST", "/views/fruits:find").
					WithBodyJson(JSON{"keys": []string{"kiwi"}}).Do()

				biff.AssertEqual(resp.StatusCode, http.StatusOK)
				biff.AssertEqualJson(resp.BodyJson(), JSON{"position": "", "count": 0, "exact": true})
			})

			a.Alternative("Find with a wrong mode", func(a *biff.A) {
				resp := apiRequest("POST", "/views/fruits:find").
					WithBodyJson(JSON{"mode": "closest", "keys": []string{"kiwi"}}).Do()

				biff.AssertEqual(resp.StatusCode, http.StatusBadRequest)
			})

			a.Alternative("Lookup", func(a *biff.A) {
				resp := apiRequest("POST", "/views/fruits:lookup").
					WithBodyJson(JSON{
						"keys": []string{"cherry"},
					}).Do()
				Save(resp, "Lookup", `
					Returns every entry matching the keys, read in a single atomic call
					when the view allows it.
				`)

				biff.AssertEqual(resp.StatusCode, http.StatusOK)
				biff.AssertEqualJson(Lines(resp.BodyString()), []JSON{
					{"noteId": 12, "columns": JSON{"name": "cherry", "price": 2, "color": "red"}},
				})
			})

			a.Alternative("Locate", func(a *biff.A) {
				resp := apiRequest("POST", "/views/fruits:locate").
					WithBodyJson(JSON{"noteId": 16}).Do()
				Save(resp, "Locate", ``)

				biff.AssertEqual(resp.StatusCode, http.StatusOK)
				biff.AssertEqualJson(resp.BodyJson(), JSON{"noteId": 16, "position": "4"})
			})

			a.Alternative("Search", func(a *biff.A) {
				resp := apiRequest("POST", "/views/fruits:search").
					WithBodyJson(JSON{
						"query":  "red",
						"fields": []string{"noteId"},
					}).Do()
				Save(resp, "Search", ``)

				biff.AssertEqual(resp.StatusCode, http.StatusOK)
				biff.AssertEqual(resp.Header.Get("X-Search-Hits"), "2")
				biff.AssertEqualJson(noteIds(resp.BodyString()), []int{4, 12})
			})

			a.Alternative("Get document", func(a *biff.A) {
				resp := apiRequest("GET", "/views/fruits/documents/8").Do()
				Save(resp, "Get document", `
					The id is a note id when numeric, otherwise a unid.
				`)

				biff.AssertEqual(resp.StatusCode, http.StatusOK)
				body := resp.BodyJsonMap()
				biff.AssertEqualJson(body["document"], JSON{"name": "banana", "price": 1, "color": "yellow"})
				biff.AssertEqual(body["source"], "noteId")

				a.Alternative("Get document by unid", func(a *biff.A) {
					resp := apiRequest("GET", "/views/fruits/documents/"+body["unid"].(string)).Do()

					biff.AssertEqual(resp.StatusCode, http.StatusOK)
					biff.AssertEqual(resp.BodyJsonMap()["noteId"], float64(8))
				})
			})

			a.Alternative("Get missing document", func(a *biff.A) {
				resp := apiRequest("GET", "/views/fruits/documents/404").Do()

				biff.AssertEqual(resp.StatusCode, http.StatusNotFound)
			})

			a.Alternative("Collations", func(a *biff.A) {
				resp := apiRequest("GET", "/views/fruits:collations").Do()

				biff.AssertEqual(resp.StatusCode, http.StatusOK)
				biff.AssertEqualJson(resp.BodyJson(), []JSON{
					{"slot": 1, "item": "price", "direction": "ascending"},
				})
			})

			a.Alternative("Sequence", func(a *biff.A) {
				resp := apiRequest("GET", "/views/fruits:sequence").Do()
				Save(resp, "Sequence", ``)

				biff.AssertEqual(resp.StatusCode, http.StatusOK)
				biff.AssertEqualJson(resp.BodyJson(), JSON{"sequence": 4, "changed": false})
			})

			a.Alternative("Patch", func(a *biff.A) {
				resp := apiRequest("POST", "/views/fruits:patch").
					WithBodyJson(JSON{
						"noteId": 8,
						"patch":  JSON{"color": "green"},
					}).Do()
				Save(resp, "Patch", ``)

				biff.AssertEqual(resp.StatusCode, http.StatusOK)
				document := resp.BodyJsonMap()["document"]
				biff.AssertEqualJson(document, JSON{"name": "banana", "price": 1, "color": "green"})

				a.Alternative("Sequence did not move", func(a *biff.A) {
					resp := apiRequest("GET", "/views/fruits:sequence").
						WithQuery("since", "4").Do()

					biff.AssertEqualJson(resp.BodyJson(), JSON{"sequence": 4, "changed": false})
				})
			})

			a.Alternative("Remove", func(a *biff.A) {
				resp := apiRequest("POST", "/views/fruits:remove").
					WithBodyJson(JSON{"noteIds": []int{4, 404}}).Do()
				Save(resp, "Remove", ``)

				biff.AssertEqual(resp.StatusCode, http.StatusOK)
				biff.AssertEqualJson(noteIds(resp.BodyString()), []int{4})

				a.Alternative("Scan after remove", func(a *biff.A) {
					resp := apiRequest("POST", "/views/fruits:scan").
						WithBodyJson(JSON{"fields": []string{"noteId"}}).Do()

					biff.AssertEqualJson(noteIds(resp.BodyString()), []int{8, 12, 16})
				})

				a.Alternative("Sequence moved", func(a *biff.A) {
					resp := apiRequest("GET", "/views/fruits:sequence").
						WithQuery("since", "4").Do()

					biff.AssertEqualJson(resp.BodyJson(), JSON{"sequence": 5, "changed": true})
				})
			})
		})
	})
}
