package safewrite

import (
	"errors"
	"testing"

	"github.com/cardengine/cardengine/internal/cardapi"
)

var errDB = errors.New("db failed")
var errFile = errors.New("file failed")
var errCompensate = errors.New("compensate failed")

func TestWrite_AllStepsSucceed(t *testing.T) {
	var fileArg int
	result, err := Write(
		func() (int, error) { return 42, nil },
		func(v int) error { fileArg = v; return nil },
		func(int) error { t.Fatal("compensate should not run on success"); return nil },
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != 42 || fileArg != 42 {
		t.Errorf("result = %d, fileArg = %d, want 42", result, fileArg)
	}
}

func TestWrite_DBFailurePropagatesWithoutFileOrCompensate(t *testing.T) {
	fileRan := false
	_, err := Write(
		func() (int, error) { return 0, errDB },
		func(int) error { fileRan = true; return nil },
		func(int) error { t.Fatal("compensate should not run when db fails"); return nil },
	)
	if !errors.Is(err, errDB) {
		t.Fatalf("expected errDB, got %v", err)
	}
	if fileRan {
		t.Error("fileAction should not run when dbAction fails")
	}
}

func TestWrite_FileFailureCompensatesSuccessfully(t *testing.T) {
	compensated := false
	_, err := Write(
		func() (int, error) { return 1, nil },
		func(int) error { return errFile },
		func(v int) error { compensated = v == 1; return nil },
	)
	if !errors.Is(err, errFile) {
		t.Fatalf("expected the original file error re-raised, got %v", err)
	}
	if !compensated {
		t.Error("compensate should have run with the db result")
	}
}

func TestWrite_FileFailureAndCompensateFailure(t *testing.T) {
	_, err := Write(
		func() (int, error) { return 1, nil },
		func(int) error { return errFile },
		func(int) error { return errCompensate },
	)
	var ce *cardapi.CompensationError
	if !errors.As(err, &ce) {
		t.Fatalf("expected *cardapi.CompensationError, got %v", err)
	}
	if !errors.Is(ce.Original, errFile) || !errors.Is(ce.Compensation, errCompensate) {
		t.Errorf("compensation error fields = %+v", ce)
	}
}
