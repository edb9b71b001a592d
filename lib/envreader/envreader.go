package envreader

import (
	"context"
	"fmt"
	"io/ioutil"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	v1 "k8s.io/client-go/kubernetes/typed/core/v1"
	"k8s.io/client-go/rest"
)

// IoutilInterface is the part of the filesystem EnvReader reads secrets from.
type IoutilInterface interface {
	ReadFile(filename string) ([]byte, error)
}

type osFilesystem struct{}

func (osFilesystem) ReadFile(filename string) ([]byte, error) { return ioutil.ReadFile(filename) }

// EnvReader reads configuration from the environment (and an optional
// config file), remembering every required key it could not find.
type EnvReader struct {
	MissingKeys []string
	Errors      bool

	v          *viper.Viper
	configFile string
	pods       v1.PodInterface
	fs         IoutilInterface
}

// Option configures an EnvReader
type Option func(*EnvReader)

// WithConfigFile adds a config file (any format viper understands) as a
// fallback source. Environment variables win.
func WithConfigFile(path string) Option {
	return func(r *EnvReader) {
		r.configFile = path
	}
}

// WithPodInterface replaces in-cluster pod discovery.
func WithPodInterface(pods v1.PodInterface) Option {
	return func(r *EnvReader) {
		r.pods = pods
	}
}

// WithFilesystem replaces the filesystem used by GetFromFile.
func WithFilesystem(fs IoutilInterface) Option {
	return func(r *EnvReader) {
		r.fs = fs
	}
}

// NewEnvReader returns an EnvReader bound to the process environment.
func NewEnvReader(opts ...Option) *EnvReader {
	r := &EnvReader{fs: osFilesystem{}}
	for _, opt := range opts {
		opt(r)
	}
	r.v = viper.New()
	r.v.AutomaticEnv()
	if r.configFile != "" {
		r.v.SetConfigFile(r.configFile)
		if err := r.v.ReadInConfig(); err != nil {
			r.fail("config file: " + r.configFile)
		}
	}
	return r
}

func (r *EnvReader) fail(key string) {
	r.Errors = true
	r.MissingKeys = append(r.MissingKeys, key)
}

func (r *EnvReader) lookup(key string) (string, bool) {
	if !r.v.IsSet(key) {
		return "", false
	}
	return r.v.GetString(key), true
}

// GetEnv returns a required value.
func (r *EnvReader) GetEnv(key string) string {
	if value, ok := r.lookup(key); ok {
		return value
	}
	r.fail(key)
	return ""
}

func (r *EnvReader) GetEnvOpt(key string) string {
	value, _ := r.lookup(key)
	return value
}

func (r *EnvReader) GetEnvDefault(key, def string) string {
	if value, ok := r.lookup(key); ok {
		return value
	}
	return def
}

func (r *EnvReader) GetEnvBoolOpt(key string) bool {
	if value, err := strconv.ParseBool(r.GetEnvOpt(key)); err == nil {
		return value
	}
	return false
}

// GetEnvFloatOpt returns def when key is unset. A value that does not parse
// is an error.
func (r *EnvReader) GetEnvFloatOpt(key string, def float64) float64 {
	text, ok := r.lookup(key)
	if !ok {
		return def
	}
	value, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil {
		r.fail(key)
		return def
	}
	return value
}

func (r *EnvReader) GetEnvDurationOpt(key string, def time.Duration) time.Duration {
	text, ok := r.lookup(key)
	if !ok {
		return def
	}
	value, err := time.ParseDuration(strings.TrimSpace(text))
	if err != nil {
		r.fail(key)
		return def
	}
	return value
}

// GetEnvListOpt splits a comma separated value, dropping empty entries.
func (r *EnvReader) GetEnvListOpt(key string) []string {
	var out []string
	for _, s := range strings.Split(r.GetEnvOpt(key), ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func (r *EnvReader) GetFromFile(path string) []byte {
	content, err := r.fs.ReadFile(path)
	if err != nil {
		r.fail("file at: " + path)
		return nil
	}
	return content
}

func (r *EnvReader) podInterface(namespace string) (v1.PodInterface, error) {
	if r.pods != nil {
		return r.pods, nil
	}
	config, err := rest.InClusterConfig()
	if err != nil {
		log.Printf("Error creating Kubernetes InClusterConfig: %s", err)
		return nil, err
	}
	kubernetesClient, err := kubernetes.NewForConfig(config)
	if err != nil {
		log.Printf("Error creating Kubernetes Client: %s", err)
		return nil, err
	}
	r.pods = kubernetesClient.CoreV1().Pods(namespace)
	return r.pods, nil
}

// GetPodHosts lists the IPs of the pods matching labelSelector.
func (r *EnvReader) GetPodHosts(namespace string, labelSelector string) []string {
	key := fmt.Sprintf("PodHosts: %s.%s", namespace, labelSelector)
	pods, err := r.podInterface(namespace)
	if err != nil {
		r.fail(key)
		return nil
	}
	list, err := pods.List(context.TODO(), metav1.ListOptions{LabelSelector: labelSelector})
	if err != nil {
		r.fail(key)
		return nil
	}
	var hosts []string
	for i := 0; i < len(list.Items); i++ {
		if ip := list.Items[i].Status.PodIP; ip != "" {
			hosts = append(hosts, ip)
		}
	}
	log.Printf("gotPodHosts: %v", hosts)
	return hosts
}
