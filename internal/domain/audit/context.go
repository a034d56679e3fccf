package audit

import "context"

type ipAddressKey struct{}

// WithIPAddress stores the client address recorded on audit events
func WithIPAddress(ctx context.Context, ip string) context.Context {
	if ip == "" {
		return ctx
	}
	return context.WithValue(ctx, ipAddressKey{}, ip)
}

// IPAddressFrom returns the client address stored in ctx, if any
func IPAddressFrom(ctx context.Context) *string {
	ip, ok := ctx.Value(ipAddressKey{}).(string)
	if !ok || ip == "" {
		return nil
	}
	return &ip
}
