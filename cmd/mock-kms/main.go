// mock-kms serves a fake Cloud KMS for local runs of the relay. Point
// MOCK_KMS_URL at it. With -cli it encrypts or decrypts a single value so
// the signing secret file can be prepared by hand.
package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"

	"github.com/aasmall/dice10k-relay/mocks/kmsapi"
)

func main() {
	tls := flag.Bool("tls", true, "enable TLS with mock cert?")
	addr := flag.String("addr", ":40080", "listen address")
	cli := flag.Bool("cli", false, "run as cli, not server.")
	encryptText := flag.String("encrypt", "", "text to encrypt")
	decryptText := flag.String("decrypt", "", "text to decrypt")
	flag.Parse()

	if *cli {
		if (*encryptText == "") == (*decryptText == "") {
			fmt.Println("You must specify at least and only one of 'encrypt' and 'decrypt'")
			return
		}
		if *encryptText != "" {
			ciphertext, err := kmsapi.Encrypt(kmsapi.DefaultKey, []byte(*encryptText))
			if err != nil {
				log.Fatalf("Error encrypting text: %v", err)
			}
			fmt.Println(ciphertext)
			return
		}
		plaintext, err := kmsapi.Decrypt(kmsapi.DefaultKey, *decryptText)
		if err != nil {
			log.Fatalf("Error decrypting text: %v", err)
		}
		fmt.Println(string(plaintext))
		return
	}

	srv := kmsapi.New(kmsapi.DefaultKey)
	if *tls {
		log.Fatal(http.ListenAndServeTLS(*addr, "/etc/mock-tls/tls.crt", "/etc/mock-tls/tls.key", srv))
	}
	log.Fatal(http.ListenAndServe(*addr, srv))
}
