// Package kmsapi is a stand-in for the Cloud KMS encrypt and decrypt
// endpoints, for local runs and tests.
package kmsapi

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/aasmall/dice10k-relay/lib/handler"
	"github.com/gorilla/mux"
)

// DefaultKey is the AES-256 key the mock uses unless told otherwise.
var DefaultKey = []byte{
	0x15, 0x7, 0x9c, 0x8f, 0x9, 0xe6, 0x30, 0x0,
	0x39, 0x1, 0x4d, 0x9c, 0xf0, 0x79, 0xd7, 0xcf,
	0xd5, 0x48, 0x39, 0x41, 0x86, 0xf2, 0xf4, 0x50,
	0xbd, 0xa3, 0xcc, 0x46, 0x49, 0x8c, 0xb1, 0xf0}

type encryptRequest struct {
	Plaintext string `json:"plaintext"`
}
type encryptResponse struct {
	Name       string `json:"name"`
	Ciphertext string `json:"ciphertext"`
}
type decryptRequest struct {
	Ciphertext string `json:"ciphertext"`
}
type decryptResponse struct {
	Name      string `json:"name"`
	Plaintext string `json:"plaintext"`
}

// Server answers :encrypt and :decrypt for any key name with one AES key.
// Like Cloud KMS, plaintext and ciphertext travel base64 encoded.
type Server struct {
	key    []byte
	router *mux.Router
}

func New(key []byte) *Server {
	s := &Server{key: key}
	r := mux.NewRouter()
	r.Handle("/v1/projects/{project-id}/locations/{location}/keyRings/{keyring-name}/cryptoKeys/{key-name}:encrypt", handler.Handler{Env: s, H: encryptHandler}).Methods(http.MethodPost)
	r.Handle("/v1/projects/{project-id}/locations/{location}/keyRings/{keyring-name}/cryptoKeys/{key-name}:decrypt", handler.Handler{Env: s, H: decryptHandler}).Methods(http.MethodPost)
	s.router = r
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func keyName(r *http.Request) string {
	v := mux.Vars(r)
	return "projects/" + v["project-id"] + "/locations/" + v["location"] + "/keyRings/" + v["keyring-name"] + "/cryptoKeys/" + v["key-name"]
}

func encryptHandler(e interface{}, w http.ResponseWriter, r *http.Request) error {
	s := e.(*Server)
	req := &encryptRequest{}
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		return handler.StatusError{Code: http.StatusBadRequest, Err: err}
	}
	plaintext, err := base64.StdEncoding.DecodeString(req.Plaintext)
	if err != nil {
		return handler.StatusError{Code: http.StatusBadRequest, Err: err}
	}
	ciphertext, err := Encrypt(s.key, plaintext)
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(&encryptResponse{Name: keyName(r), Ciphertext: ciphertext})
}

func decryptHandler(e interface{}, w http.ResponseWriter, r *http.Request) error {
	s := e.(*Server)
	req := &decryptRequest{}
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		return handler.StatusError{Code: http.StatusBadRequest, Err: err}
	}
	plaintext, err := Decrypt(s.key, req.Ciphertext)
	if err != nil {
		log.Printf("could not decrypt ciphertext: %v", err)
		return handler.StatusError{Code: http.StatusBadRequest, Err: err}
	}
	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(&decryptResponse{
		Name:      keyName(r),
		Plaintext: base64.StdEncoding.EncodeToString(plaintext),
	})
}

// Encrypt seals plaintext with AES-CFB and returns base64 ciphertext with
// the IV in front.
func Encrypt(key []byte, plaintext []byte) (string, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return "", err
	}
	cipherText := make([]byte, aes.BlockSize+len(plaintext))
	iv := cipherText[:aes.BlockSize]
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return "", err
	}
	stream := cipher.NewCFBEncrypter(block, iv)
	stream.XORKeyStream(cipherText[aes.BlockSize:], plaintext)
	return base64.StdEncoding.EncodeToString(cipherText), nil
}

// Decrypt reverses Encrypt.
func Decrypt(key []byte, ciphertext string) ([]byte, error) {
	cipherText, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return nil, err
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	if len(cipherText) < aes.BlockSize {
		return nil, errors.New("ciphertext block size is too short")
	}
	iv := cipherText[:aes.BlockSize]
	cipherText = cipherText[aes.BlockSize:]
	stream := cipher.NewCFBDecrypter(block, iv)
	// XORKeyStream can work in-place if the two arguments are the same.
	stream.XORKeyStream(cipherText, cipherText)
	return cipherText, nil
}
