package tern

import (
	"math"
	"testing"
)

func TestSampleRateFrom_Booleans(t *testing.T) {
	if rate, ok := sampleRateFrom(true); !ok || rate != 1 {
		t.Errorf("true = (%v, %v), want (1, true)", rate, ok)
	}
	if rate, ok := sampleRateFrom(false); !ok || rate != 0 {
		t.Errorf("false = (%v, %v), want (0, true)", rate, ok)
	}
}

func TestSampleRateFrom_Numbers(t *testing.T) {
	valid := []struct {
		in   any
		want float64
	}{
		{0.0, 0}, {0.25, 0.25}, {1.0, 1}, {0, 0}, {1, 1},
	}
	for _, tc := range valid {
		if rate, ok := sampleRateFrom(tc.in); !ok || rate != tc.want {
			t.Errorf("sampleRateFrom(%v) = (%v, %v), want (%v, true)", tc.in, rate, ok, tc.want)
		}
	}
}

func TestSampleRateFrom_Invalid(t *testing.T) {
	invalid := []any{-0.1, 1.1, 2, -1, math.NaN(), "0.5", nil, []float64{0.5}}
	for _, in := range invalid {
		if _, ok := sampleRateFrom(in); ok {
			t.Errorf("sampleRateFrom(%v) accepted, want rejected", in)
		}
	}
}

func TestClient_Sample_SamplerReceivesRequest(t *testing.T) {
	var got SamplingContext
	client := NewClient(Options{
		Dsn:       testDSN,
		Transport: &testTransport{},
		Request:   &Request{URL: "https://svc.example.com/checkout"},
		TracesSampler: func(ctx SamplingContext) any {
			got = ctx
			return true
		},
	})

	if !client.sample() {
		t.Fatal("sampler true should sample")
	}
	if got.Request == nil || got.Request.URL != "https://svc.example.com/checkout" {
		t.Errorf("sampler context = %+v", got.Request)
	}
}

func TestClient_Sample_SamplerProbability(t *testing.T) {
	client := NewClient(Options{
		Dsn:           testDSN,
		Transport:     &testTransport{},
		TracesSampler: func(ctx SamplingContext) any { return 0.5 },
	})

	client.randFloat = func() float64 { return 0.4 }
	if !client.sample() {
		t.Error("draw below the rate should sample")
	}
	client.randFloat = func() float64 { return 0.6 }
	if client.sample() {
		t.Error("draw above the rate should not sample")
	}
}

func TestClient_Sample_DefaultSamplesEverything(t *testing.T) {
	client := NewClient(Options{Dsn: testDSN, Transport: &testTransport{}})
	for i := 0; i < 5; i++ {
		if !client.sample() {
			t.Fatal("unconfigured sampling must sample everything")
		}
	}
}
