package enhance

import "strings"

var (
	frontendFrameworks = []string{"react", "vue", "angular", "svelte", "solid", "preact", "tailwind", "nextjs", "next.js", "nuxt", "astro", "remix"}
	backendFrameworks  = []string{"express", "fastify", "nestjs", "koa", "django", "flask", "fastapi", "gin", "echo", "fiber", "rails", "spring", "actix", "axum", "laravel"}
	mobileFrameworks   = []string{"react-native", "flutter", "expo", "swiftui", "ionic"}
	cliFrameworks      = []string{"cobra", "urfave/cli", "clap", "click", "commander", "typer"}
	fullstackMarkers   = []string{"nextjs", "next.js", "nuxt", "remix", "sveltekit", "rails", "laravel"}
)

// InferProjectType guesses the project shape from detected frameworks and repo facts.
func InferProjectType(facts []string, frameworks []string) ProjectType {
	haystack := strings.ToLower(strings.Join(append(append([]string{}, frameworks...), facts...), " "))
	has := func(list []string) bool {
		for _, f := range list {
			if containsWord(haystack, f) {
				return true
			}
		}
		return false
	}

	switch {
	case has(mobileFrameworks):
		return ProjectMobile
	case has(fullstackMarkers):
		return ProjectFullstack
	case has(frontendFrameworks) && has(backendFrameworks):
		return ProjectFullstack
	case has(frontendFrameworks):
		return ProjectFrontend
	case has(backendFrameworks):
		return ProjectBackend
	case has(cliFrameworks):
		return ProjectCLI
	case strings.Contains(haystack, "library") || strings.Contains(haystack, "package exports"):
		return ProjectLibrary
	}
	return ProjectUnknown
}
