package resilience

import (
	"testing"
)

func TestClassify(t *testing.T) {
	accepted := []int{200, 201}

	tests := []struct {
		status int
		want   Class
	}{
		{200, ClassAccepted},
		{201, ClassAccepted},
		{204, ClassRejected},
		{404, ClassNotFound},
		{429, ClassRateLimited},
		{500, ClassServerError},
		{503, ClassServerError},
		{599, ClassServerError},
		{400, ClassRejected},
		{401, ClassRejected},
		{409, ClassRejected},
	}
	for _, tt := range tests {
		if got := Classify(tt.status, accepted); got != tt.want {
			t.Errorf("Classify(%d) = %s, want %s", tt.status, got, tt.want)
		}
	}
}

func TestClassify_AcceptedWins(t *testing.T) {
	if got := Classify(404, []int{200, 404}); got != ClassAccepted {
		t.Errorf("expected accepted 404, got %s", got)
	}
	if got := Classify(204, []int{200, 201, 204}); got != ClassAccepted {
		t.Errorf("expected accepted 204, got %s", got)
	}
}

func TestClass_Retryable(t *testing.T) {
	if !ClassRejected.Retryable(1) {
		t.Error("rejected status should be retried once on the first attempt")
	}
	if ClassRejected.Retryable(2) {
		t.Error("rejected status should be terminal from the second attempt")
	}
	for _, c := range []Class{ClassRateLimited, ClassServerError, ClassTransport} {
		if !c.Retryable(5) {
			t.Errorf("%s should be retryable", c)
		}
	}
	if ClassAccepted.Retryable(1) || ClassNotFound.Retryable(1) {
		t.Error("final classes should not be retryable")
	}
}

func TestClass_String(t *testing.T) {
	if ClassTransport.String() != "transport" {
		t.Errorf("unexpected string %q", ClassTransport.String())
	}
	if Class(99).String() != "unknown" {
		t.Errorf("unexpected string %q", Class(99).String())
	}
}
