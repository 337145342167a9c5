package gateway

import (
	"context"
	"sync"
)

// FakeGateway is an in-memory Gateway for tests and local runs. Each field
// func, when set, overrides the default behaviour.
type FakeGateway struct {
	mu sync.Mutex

	InitiateFunc func(ctx context.Context, req *InitiateRequest) (*InitiateResult, error)
	VerifyFunc   func(ctx context.Context, txRef string) (*VerifyResult, error)
	PingFunc     func(ctx context.Context) error

	initiateCalls []*InitiateRequest
	verifyCalls   []string
}

func (f *FakeGateway) Initiate(ctx context.Context, req *InitiateRequest) (*InitiateResult, error) {
	f.mu.Lock()
	f.initiateCalls = append(f.initiateCalls, req)
	fn := f.InitiateFunc
	f.mu.Unlock()
	if fn != nil {
		return fn(ctx, req)
	}
	return &InitiateResult{CheckoutURL: "https://checkout.example/" + req.Reference, TxRef: req.Reference}, nil
}

func (f *FakeGateway) Verify(ctx context.Context, txRef string) (*VerifyResult, error) {
	f.mu.Lock()
	f.verifyCalls = append(f.verifyCalls, txRef)
	fn := f.VerifyFunc
	f.mu.Unlock()
	if fn != nil {
		return fn(ctx, txRef)
	}
	return &VerifyResult{TxRef: txRef, Status: VerifyStatusSuccess}, nil
}

func (f *FakeGateway) Ping(ctx context.Context) error {
	if f.PingFunc != nil {
		return f.PingFunc(ctx)
	}
	return nil
}

func (f *FakeGateway) InitiateCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.initiateCalls)
}

func (f *FakeGateway) VerifyCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.verifyCalls)
}
