// mock-slack records the Web API calls and response_url posts the relay
// makes. Point SLACK_API_URL at <addr>/api/ to use it.
package main

import (
	"flag"
	"log"
	"net/http"

	"github.com/aasmall/dice10k-relay/mocks/slackapi"
)

func main() {
	addr := flag.String("addr", ":50082", "plain HTTP listen address")
	tlsAddr := flag.String("tls-addr", "", "TLS listen address, served with the mock cert when set")
	flag.Parse()

	srv := slackapi.New()
	srv.Verbose = true

	if *tlsAddr != "" {
		go func() {
			log.Fatal(http.ListenAndServeTLS(*tlsAddr, "/etc/mock-tls/tls.crt", "/etc/mock-tls/tls.key", srv))
		}()
	}
	log.Printf("mock slack listening on %s", *addr)
	log.Fatal(http.ListenAndServe(*addr, srv))
}
