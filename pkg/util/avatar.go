package util

import "net/url"

// AvatarURI builds a DiceBear initials avatar URL for entities without an
// uploaded image (agents always, users as a fallback).
func AvatarURI(seed string) string {
	return "https://api.dicebear.com/9.x/initials/svg?seed=" + url.QueryEscape(seed)
}
