package main

import (
	"asmref/internal/assembly"
	"asmref/internal/refcache"
)

type assemblyView struct {
	Name            string `json:"name"`
	Version         string `json:"version,omitempty"`
	Culture         string `json:"culture"`
	PublicKeyToken  string `json:"public_key_token"`
	TargetFramework string `json:"target_framework,omitempty"`
	Framework       bool   `json:"framework"`
	Identity        string `json:"identity"`
	Path            string `json:"path"`
}

func newAssemblyView(cache *refcache.Cache, info *assembly.Info) assemblyView {
	return assemblyView{
		Name:            info.Name,
		Version:         info.Version.String(),
		Culture:         info.Culture,
		PublicKeyToken:  info.PublicKeyToken,
		TargetFramework: info.TargetFramework,
		Framework:       cache.IsFramework(info),
		Identity:        info.String(),
		Path:            info.Path,
	}
}

var assemblyHeaders = []string{"Name", "Version", "Culture", "Token", "Target", "Framework", "Path"}

func (v assemblyView) row() []string {
	return []string{v.Name, v.Version, v.Culture, v.PublicKeyToken, v.TargetFramework, yesNo(v.Framework), v.Path}
}
