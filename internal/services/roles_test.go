package services

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/ovestreet/storefront-backend/internal/requestdata"
)

func TestClaimsRoleResolver(t *testing.T) {
	resolver := NewClaimsRoleResolver(mustTestLogger(t))

	cases := []struct {
		name string
		ctx  context.Context
		want bool
	}{
		{
			name: "no_request_data_is_unprivileged",
			ctx:  context.Background(),
			want: false,
		},
		{
			name: "shopper_is_unprivileged",
			ctx: requestdata.WithRequestData(context.Background(), &requestdata.RequestData{
				UserID: uuid.New(),
				Roles:  []string{"shopper"},
			}),
			want: false,
		},
		{
			name: "admin_is_privileged",
			ctx: requestdata.WithRequestData(context.Background(), &requestdata.RequestData{
				UserID: uuid.New(),
				Roles:  []string{"shopper", "admin"},
			}),
			want: true,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := resolver.PrivilegedForBulk(tc.ctx); got != tc.want {
				t.Fatalf("PrivilegedForBulk=%v, want %v", got, tc.want)
			}
		})
	}
}
