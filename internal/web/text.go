package web

// Copy is the prose around the data tables.
type Copy struct {
	Title        string
	Tagline      string
	CaptainsLog  string
	IslandsIntro string
	CloudsIntro  string
	TowerIntro   string
	CareerIntro  string
	Footer       string
}

var SiteCopy = Copy{
	Title:   "DevOps Journey",
	Tagline: "From container decks to cloud architecture: a blue/green deployment of a career.",

	CaptainsLog: `"Sailing through the DevOps seas with a cargo of cutting-edge technologies.
	Each container holds the power to transform infrastructure into art."`,

	IslandsIntro: `Discover the projects I've built across the DevOps archipelago.
	Each island represents a unique challenge solved with modern technology.`,

	CloudsIntro: `Services I ship to, run on and keep an eye on, drifting above the fleet.`,

	TowerIntro: `Real-time observability into the DevOps fleet. Keeping watch over
	infrastructure health and performance metrics.`,

	CareerIntro: `Every lighthouse marks a harbour I've docked in on the way to the next deployment.`,

	Footer: "⚓ Built with Go, Gin and HTMX, and a passion for DevOps excellence",
}
