package common

const (
	KEY_MARKET_DATA  = "stock:%s:%s"
	KEY_DAILY_REPORT = "daily_report:%s"
)

const (
	PROVIDER_YAHOO  = "yahoo"
	PROVIDER_GEMINI = "gemini"
	PROVIDER_OPENAI = "openai"
)

const (
	KEY_LOG_HOOK_SEND_ALERT = "send_alert"
	KEY_LOG_REQUEST_ID      = "request_id"
)

const (
	CONTEXT_KEY_USER_ID = "user_id"
)
