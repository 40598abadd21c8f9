package env

import "os"

func IsGithubAction() bool {
	return os.Getenv("GITHUB_ACTIONS") == "true"
}

// Token returns an access token supplied through the environment, if any.
func Token() string {
	return os.Getenv("GITSYNC_TOKEN")
}

func IsConcurrencyLockDisabled() bool {
	return os.Getenv("GITSYNC_CONCURRENCY_LOCK_DISABLED") == "true"
}
