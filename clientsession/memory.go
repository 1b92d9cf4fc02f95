package clientsession

// MemoryKV is an in-memory KV for tests and non-browser consumers.
type MemoryKV struct {
	values map[string]string
}

func NewMemoryKV() *MemoryKV {
	return &MemoryKV{values: make(map[string]string)}
}

func (m *MemoryKV) Get(key string) (string, bool) {
	v, ok := m.values[key]
	return v, ok
}

func (m *MemoryKV) Set(key, value string) {
	m.values[key] = value
}

func (m *MemoryKV) Delete(key string) {
	delete(m.values, key)
}

// MemoryCookieJar is an in-memory CookieJar. Cookies are keyed by
// name+domain+path the way a browser distinguishes variants, so tests can
// assert that both the parent-domain and host-only copies are cleared.
type MemoryCookieJar struct {
	cookies map[string]Cookie
}

func NewMemoryCookieJar() *MemoryCookieJar {
	return &MemoryCookieJar{cookies: make(map[string]Cookie)}
}

func (m *MemoryCookieJar) Get(name string) (string, bool) {
	for _, c := range m.cookies {
		if c.Name == name {
			return c.Value, true
		}
	}
	return "", false
}

func (m *MemoryCookieJar) Set(cookie Cookie) {
	key := cookie.Name + "|" + cookie.Domain + "|" + cookie.Path
	if cookie.MaxAge <= 0 {
		delete(m.cookies, key)
		return
	}
	m.cookies[key] = cookie
}

// Len reports the number of live cookies.
func (m *MemoryCookieJar) Len() int {
	return len(m.cookies)
}
