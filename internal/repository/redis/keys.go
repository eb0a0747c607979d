package redis

import "fmt"

const ns = "canteen:v1"

func KeyVenues() string {
	return ns + ":venues"
}

func KeyCatalogLock() string {
	return ns + ":lock:catalog"
}

func KeyRateLimit(scope, id string) string {
	return fmt.Sprintf("%s:rl:%s:%s", ns, scope, id)
}

func KeyIdemTicket(employeeID int64, idemKey string) string {
	return fmt.Sprintf("%s:idem:tickets:%d:%s", ns, employeeID, idemKey)
}

func ChannelCatalogChanged() string {
	return ns + ":catalog:changed"
}
