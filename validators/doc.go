// Package validators provides the built-in field validators (bean
// validation style: NotNull, Size, Pattern, Email, Past, ...) and a
// constraint registry that turns declared model constraints into validators.
//
// Every built-in validator carries a message key and parameters
// (MessageKey, MessageParams) so the i18n package can localize its message.
// Unless noted otherwise a nil value passes; combine with NotNull or
// Required to make a field mandatory.
package validators
