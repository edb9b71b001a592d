package envreader

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/davecgh/go-spew/spew"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes/fake"
)

type mapFS map[string]string

func (m mapFS) ReadFile(filename string) ([]byte, error) {
	if s, ok := m[filename]; ok {
		return []byte(s), nil
	}
	return nil, errors.New("no such file")
}

func TestEnvReader_Getters(t *testing.T) {
	t.Setenv("ER_REQUIRED", "value")
	t.Setenv("ER_BOOL", "true")
	t.Setenv("ER_FLOAT", "0.25")
	t.Setenv("ER_BAD_FLOAT", "quarter")
	t.Setenv("ER_DURATION", "45s")
	t.Setenv("ER_LIST", "10.0.0.1, 10.0.0.2,,")

	r := NewEnvReader()
	if got := r.GetEnv("ER_REQUIRED"); got != "value" {
		t.Errorf("GetEnv() = %q", got)
	}
	if got := r.GetEnvOpt("ER_NOT_THERE"); got != "" {
		t.Errorf("GetEnvOpt() = %q", got)
	}
	if got := r.GetEnvDefault("ER_NOT_THERE", "fallback"); got != "fallback" {
		t.Errorf("GetEnvDefault() = %q", got)
	}
	if !r.GetEnvBoolOpt("ER_BOOL") {
		t.Error("GetEnvBoolOpt() = false")
	}
	if got := r.GetEnvFloatOpt("ER_FLOAT", 1); got != 0.25 {
		t.Errorf("GetEnvFloatOpt() = %v", got)
	}
	if got := r.GetEnvFloatOpt("ER_FLOAT_UNSET", 1); got != 1 {
		t.Errorf("GetEnvFloatOpt() default = %v", got)
	}
	if got := r.GetEnvDurationOpt("ER_DURATION", time.Second); got != 45*time.Second {
		t.Errorf("GetEnvDurationOpt() = %v", got)
	}
	if got, want := r.GetEnvListOpt("ER_LIST"), []string{"10.0.0.1", "10.0.0.2"}; !reflect.DeepEqual(got, want) {
		t.Errorf("GetEnvListOpt() = %v, want %v", got, want)
	}
	if r.Errors {
		t.Fatalf("unexpected errors: %v", r.MissingKeys)
	}

	r.GetEnv("ER_MISSING")
	r.GetEnvFloatOpt("ER_BAD_FLOAT", 0)
	if !r.Errors {
		t.Error("Errors not set")
	}
	if want := []string{"ER_MISSING", "ER_BAD_FLOAT"}; !reflect.DeepEqual(r.MissingKeys, want) {
		t.Errorf("MissingKeys = %v, want %v", r.MissingKeys, want)
	}
}

func TestEnvReader_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "relay.yaml")
	if err := os.WriteFile(path, []byte("er_from_file: file\ner_both: file\n"), 0600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("ER_BOTH", "env")

	r := NewEnvReader(WithConfigFile(path))
	if got := r.GetEnv("ER_FROM_FILE"); got != "file" {
		t.Errorf("GetEnv(ER_FROM_FILE) = %q", got)
	}
	if got := r.GetEnv("ER_BOTH"); got != "env" {
		t.Errorf("GetEnv(ER_BOTH) = %q, environment should win", got)
	}
	if r.Errors {
		t.Errorf("unexpected errors: %v", r.MissingKeys)
	}

	r = NewEnvReader(WithConfigFile(filepath.Join(t.TempDir(), "missing.yaml")))
	if !r.Errors {
		t.Error("missing config file not reported")
	}
}

func TestEnvReader_GetFromFile(t *testing.T) {
	r := NewEnvReader(WithFilesystem(mapFS{"/etc/slack-secrets/slack-signing-secret": "shh"}))
	if got := string(r.GetFromFile("/etc/slack-secrets/slack-signing-secret")); got != "shh" {
		t.Errorf("GetFromFile() = %q", got)
	}
	if got := r.GetFromFile("/nope"); got != nil {
		t.Errorf("GetFromFile() = %q, want nil", got)
	}
	if want := []string{"file at: /nope"}; !reflect.DeepEqual(r.MissingKeys, want) {
		t.Errorf("MissingKeys = %v, want %v", r.MissingKeys, want)
	}
}

func TestEnvReader_GetPodHosts(t *testing.T) {
	pod := func(name, ip string, labels map[string]string) *corev1.Pod {
		return &corev1.Pod{
			ObjectMeta: metav1.ObjectMeta{Name: name, Namespace: "default", Labels: labels},
			Status:     corev1.PodStatus{PodIP: ip},
		}
	}
	clientset := fake.NewSimpleClientset(
		pod("redis-0", "10.1.0.4", map[string]string{"k8s-app": "redis"}),
		pod("redis-1", "", map[string]string{"k8s-app": "redis"}),
		pod("relay-0", "10.1.0.9", map[string]string{"k8s-app": "relay"}),
	)
	r := NewEnvReader(WithPodInterface(clientset.CoreV1().Pods("default")))
	got := r.GetPodHosts("default", "k8s-app=redis")
	if want := []string{"10.1.0.4"}; !reflect.DeepEqual(got, want) {
		t.Errorf("GetPodHosts() = %v, want %v", spew.Sdump(got), spew.Sdump(want))
	}
	if r.Errors {
		t.Errorf("unexpected errors: %v", r.MissingKeys)
	}
}
