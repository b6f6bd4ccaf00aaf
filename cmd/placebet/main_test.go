package main

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fatih/color"
	"github.com/smartystreets/goconvey/convey"
)

func newBackend() *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/drivers/", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `[{"id":1,"driver_number":1,"first_name":"Max","last_name":"Verstappen","team":"Red Bull"},
{"id":2,"driver_number":4,"first_name":"Lando","last_name":"Norris","team":"McLaren"}]`)
	})
	mux.HandleFunc("GET /api/bets/my_bets/", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `[]`)
	})
	return httptest.NewServer(mux)
}

func TestRun(t *testing.T) {
	color.NoColor = true

	convey.Convey("Given the placebet command", t, func() {
		var stdout, stderr bytes.Buffer

		convey.Convey("When help is requested", func() {
			code := run([]string{"-help"}, &stdout, &stderr)

			convey.Convey("Then it prints usage and succeeds", func() {
				convey.So(code, convey.ShouldEqual, 0)
				convey.So(stdout.String(), convey.ShouldContainSubstring, "gridbet placebet")
			})
		})

		convey.Convey("When an unknown flag is passed", func() {
			convey.So(run([]string{"-bogus"}, &stdout, &stderr), convey.ShouldEqual, 2)
		})

		convey.Convey("When the ranking is malformed", func() {
			code := run([]string{"-race", "3", "-ranking", "1,x"}, &stdout, &stderr)

			convey.Convey("Then it exits with a usage error", func() {
				convey.So(code, convey.ShouldEqual, 2)
				convey.So(stderr.String(), convey.ShouldContainSubstring, "not a driver number")
			})
		})

		convey.Convey("When no race is given", func() {
			convey.So(run([]string{"-url", "http://127.0.0.1:1"}, &stdout, &stderr), convey.ShouldEqual, 2)
		})

		convey.Convey("When a dry run is made against a backend", func() {
			backend := newBackend()
			defer backend.Close()

			code := run([]string{
				"-url", backend.URL, "-race", "3", "-slots", "2",
				"-ranking", "4,1", "-cookie", "sessionid=a; csrftoken=t", "-dry-run",
			}, &stdout, &stderr)

			convey.Convey("Then the ranking is printed and nothing fails", func() {
				convey.So(code, convey.ShouldEqual, 0)
				convey.So(stdout.String(), convey.ShouldContainSubstring, "Norris")
				convey.So(stdout.String(), convey.ShouldContainSubstring, "Verstappen")
			})
		})

		convey.Convey("When the backend is unreachable", func() {
			backend := newBackend()
			backend.Close()

			code := run([]string{"-url", backend.URL, "-race", "3", "-ranking", "1", "-dry-run"}, &stdout, &stderr)

			convey.Convey("Then it fails with a runtime error", func() {
				convey.So(code, convey.ShouldEqual, 1)
			})
		})
	})
}
