package version

var (
	Version     = "develop"
	ProjectName = "Wallarm Contract Firewall"
	Namespace   = "APIFW"
)
