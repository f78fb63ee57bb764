package deps

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

const dotnetRootEnv = "DOTNET_ROOT"

// CheckDotnetHost reports the .NET installation whose shared frameworks and
// reference packs can serve as framework paths.
//
// DOTNET_ROOT wins when set. Otherwise the "dotnet" host on PATH is resolved
// through symlinks, since package managers usually link it from /usr/bin.
func CheckDotnetHost() Status {
	result := Status{
		Name:        ".NET host",
		Description: "Supplies framework reference assemblies",
		Optional:    true,
	}

	if root := strings.TrimSpace(os.Getenv(dotnetRootEnv)); root != "" {
		result.Command = root
		if info, err := os.Stat(root); err != nil || !info.IsDir() {
			result.Detail = fmt.Sprintf("%s=%s is not a directory", dotnetRootEnv, root)
			return result
		}
		result.Available = true
		result.Detail = "from " + dotnetRootEnv
		return result
	}

	name := executableName("dotnet")
	host, err := exec.LookPath(name)
	if err != nil {
		result.Command = name
		result.Detail = fmt.Sprintf("binary %q not found", name)
		return result
	}
	if resolved, err := filepath.EvalSymlinks(host); err == nil {
		host = resolved
	}
	result.Command = filepath.Dir(host)
	result.Available = true
	result.Detail = "from PATH"
	return result
}

func executableName(base string) string {
	if runtime.GOOS == "windows" {
		return base + ".exe"
	}
	return base
}
