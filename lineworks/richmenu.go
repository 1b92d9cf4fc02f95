package lineworks

// RichMenuSize is the pixel size of a rich menu canvas.
type RichMenuSize struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// RichMenuBounds is a tappable region within the canvas.
type RichMenuBounds struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// RichMenuAction is what a tap on an area does.
type RichMenuAction struct {
	Type        string `json:"type"` // "uri" | "postback" | "message" | "copy"
	Label       string `json:"label,omitempty"`
	URI         string `json:"uri,omitempty"`
	Data        string `json:"data,omitempty"`
	DisplayText string `json:"displayText,omitempty"`
	Text        string `json:"text,omitempty"`
	CopyText    string `json:"copyText,omitempty"`
}

// RichMenuArea binds a bounds rectangle to an action.
type RichMenuArea struct {
	Bounds RichMenuBounds `json:"bounds"`
	Action RichMenuAction `json:"action"`
}

// RichMenu is a menu as returned by the platform.
type RichMenu struct {
	RichMenuID   string         `json:"richmenuId"`
	RichMenuName string         `json:"richmenuName"`
	Size         RichMenuSize   `json:"size"`
	Areas        []RichMenuArea `json:"areas"`
}

// RichMenuCreate is the creation request body.
type RichMenuCreate struct {
	RichMenuName string         `json:"richmenuName"`
	Size         RichMenuSize   `json:"size"`
	Areas        []RichMenuArea `json:"areas"`
}

// RichMenuOverview is the joined read used by the admin list view: every
// menu, the current default, and whether each menu has an image attached.
type RichMenuOverview struct {
	RichMenus         []RichMenu      `json:"richmenus"`
	DefaultRichMenuID string          `json:"defaultRichmenuId"`
	ImageStatus       map[string]bool `json:"imageStatus"`
}
