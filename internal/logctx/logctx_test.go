package logctx

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"
)

func TestHandler_AddsAttemptAndRequestGroups(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(Handler{Handler: slog.NewJSONHandler(&buf, nil)}).With("component", "test")

	ctx := WithRequestData(context.Background(), &RequestData{RequestID: "r1", Method: "GET", Path: "/whoami"})
	ctx, ad := WithAttemptData(ctx, "jwk")
	ad.KeyID = "key-id"
	ad.Alg = "RS256"

	log.InfoContext(ctx, "hello")

	var rec struct {
		Component string `json:"component"`
		Req       struct {
			ID   string `json:"id"`
			Path string `json:"path"`
		} `json:"req"`
		Authn struct {
			AttemptID string `json:"attempt_id"`
			Strategy  string `json:"strategy"`
			KID       string `json:"kid"`
			Alg       string `json:"alg"`
		} `json:"authn"`
	}
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("decode log: %v (%s)", err, buf.String())
	}
	if rec.Component != "test" || rec.Req.ID != "r1" || rec.Req.Path != "/whoami" {
		t.Fatalf("request attrs missing: %s", buf.String())
	}
	if rec.Authn.AttemptID == "" || rec.Authn.Strategy != "jwk" || rec.Authn.KID != "key-id" || rec.Authn.Alg != "RS256" {
		t.Fatalf("attempt attrs missing: %s", buf.String())
	}

	got, ok := Attempt(ctx)
	if !ok || got != ad {
		t.Fatalf("attempt not retrievable from context")
	}
	if _, ok := Attempt(context.Background()); ok {
		t.Fatalf("unexpected attempt in empty context")
	}
}
