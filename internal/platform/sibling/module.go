package sibling

import "go.uber.org/fx"

var Module = fx.Options(
	fx.Provide(NewListingClient, NewNotificationClient),
)
