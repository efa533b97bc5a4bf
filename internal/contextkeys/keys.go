package contextkeys

import "context"

type updateTypeKey struct{}
type callbackDataKey struct{}
type langKey struct{}

type UpdateType string

const (
	UpdateTypeCommand     UpdateType = "command"
	UpdateTypeText        UpdateType = "text"
	UpdateTypeCallback    UpdateType = "callback"
	UpdateTypePreCheckout UpdateType = "pre_checkout"
	UpdateTypePayment     UpdateType = "payment"
	UpdateTypeUnknown     UpdateType = "unknown"
)

func WithUpdateType(ctx context.Context, t UpdateType) context.Context {
	return context.WithValue(ctx, updateTypeKey{}, t)
}

func GetUpdateType(ctx context.Context) (UpdateType, bool) {
	v := ctx.Value(updateTypeKey{})
	if v == nil {
		return UpdateTypeUnknown, false
	}
	return v.(UpdateType), true
}

func WithCallbackData(ctx context.Context, data string) context.Context {
	return context.WithValue(ctx, callbackDataKey{}, data)
}

func GetCallbackData(ctx context.Context) (string, bool) {
	v := ctx.Value(callbackDataKey{})
	if v == nil {
		return "", false
	}
	return v.(string), true
}

func WithLang(ctx context.Context, lang string) context.Context {
	return context.WithValue(ctx, langKey{}, lang)
}

func GetLang(ctx context.Context) (string, bool) {
	v := ctx.Value(langKey{})
	if v == nil {
		return "", false
	}
	return v.(string), true
}
