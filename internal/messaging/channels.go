package messaging

// IPC channels served by the extension messaging service.
const (
	ChannelExtensionsPaths = "get-extensions-paths"
	ChannelExtensionPath   = "get-extension-path"
	ChannelTabsQuery       = "api-tabs-query"
	ChannelTabsCreate      = "api-tabs-create"
	ChannelTabsInsertCSS   = "api-tabs-insertCSS"
	ChannelSetBadgeText    = "api-browserAction-setBadgeText"
	ChannelAddListener     = "api-addListener"
	ChannelRemoveListener  = "api-removeListener"
	ChannelCookiesGetAll   = "api-cookies-getAll"
	ChannelCookiesRemove   = "api-cookies-remove"
	ChannelCookiesSet      = "api-cookies-set"

	// ChannelCookiesChanged is pushed to registered cookies.onChanged listeners.
	ChannelCookiesChanged = "api-emit-event-cookies-onChanged"
)

// Listener scopes and event names with host-side routing.
const (
	ScopeCookies   = "cookies"
	EventOnChanged = "onChanged"
)
