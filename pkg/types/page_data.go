package types

type NavbarData struct {
	IsAuthenticated bool
	UserID          string
	UserEmail       string
	Role            Role
}

type NavbarDataSetter interface {
	SetNavbarData(NavbarData)
}

type BasePageData struct {
	Title  string
	Notice string
	Error  string
	Navbar NavbarData
}

func (b *BasePageData) SetNavbarData(d NavbarData) {
	b.Navbar = d
}

type LoginPageData struct {
	BasePageData
	Email string
}

type RegisterPageData struct {
	BasePageData
	Name        string
	Email       string
	FieldErrors map[string]string
}

// RequestFormData carries the field view's entered values back on a
// failed submit so the form isn't wiped out.
type RequestFormData struct {
	ProjectID   string `form:"project_id"`
	ObraName    string `form:"obra_name"`
	Type        string `form:"type"`
	Title       string `form:"title"`
	Description string `form:"description"`
}

type FieldPageData struct {
	BasePageData
	Form        RequestFormData
	FieldErrors map[string]string
	Types       []RequestType
	Requests    []*Request
}

type OfficePageData struct {
	BasePageData
	Projects []string
	Statuses []RequestStatus
	Types    []RequestType
	Filters  RequestFilters
	Requests []*Request
}
