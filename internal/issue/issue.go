// SPDX-License-Identifier: EPL-2.0

package issue

import (
	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

type Id int

const (
	ManifestNotFoundId Id = iota + 1
	ManifestParseErrorId
	PlatformUnsupportedId
	PlatformNotDeclaredId
	PackageUnresolvedId
	CatalogUnavailableId
	StoreCorruptedId
	ToolchainNotFoundId
	BootstrapFailedId
	ExtensionInstallFailedId
	HookFailedId
	ShellNotFoundId
	ConfigLoadFailedId
	LockfileInvalidId
	FrozenWithoutLockId
	PermissionDeniedId
)

type MarkdownMsg string

type HttpLink string

type Renderer interface {
	Render(in string, stylePath string) (string, error)
}

type Issue struct {
	id       Id          // ID used to lookup the issue
	mdMsg    MarkdownMsg // Markdown text that will be rendered
	docLinks []HttpLink  // must never be empty, because we need to have docs about all issue types
	extLinks []HttpLink  // external links that might be useful for the user
}

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

func (i *Issue) DocLinks() []HttpLink {
	return slices.Clone(i.docLinks)
}

func (i *Issue) ExtLinks() []HttpLink {
	return slices.Clone(i.extLinks)
}

func (i *Issue) Render(stylePath string) (string, error) {
	extraMd := ""
	if len(i.docLinks) > 0 || len(i.extLinks) > 0 {
		extraMd += "\n\n"
		extraMd += "## See also: "
		for _, link := range i.docLinks {
			extraMd += "- [" + string(link) + "]"
		}
		for _, link := range i.extLinks {
			extraMd += "- [" + string(link) + "]"
		}
	}
	return render(string(i.mdMsg)+extraMd, stylePath)
}

var (
	render = glamour.Render

	manifestNotFoundIssue = &Issue{
		id: ManifestNotFoundId,
		mdMsg: `
# No shedfile found!

We searched for a shedfile but couldn't find one in this directory or
any of its parents.

## Search order:
1. Current directory
2. Every parent directory up to the filesystem root

## Things you can try:
- Create a shedfile in your project root:
~~~
$ shed init
~~~

- Or run shed from inside the project:
~~~
$ cd /path/to/your/project
$ shed enter
~~~

## Example shedfile structure:
~~~cue
name: "myapp"

platforms: [
	{
		name: "x86_64-linux"
		libraries: ["gtk3", "webkitgtk_4_1"]
		tools: ["pkg-config"]
	},
]
~~~`,
	}

	manifestParseErrorIssue = &Issue{
		id: ManifestParseErrorId,
		mdMsg: `
# Failed to parse shedfile!

Your shedfile contains syntax errors or invalid configuration.

## Common issues:
- Invalid CUE syntax (missing quotes, braces, etc.)
- Unknown field names
- Invalid values for known fields
- Missing required fields (name, platforms)

## Things you can try:
- Check the error message above for the specific line/column
- Validate your CUE syntax using the cue command-line tool
- Run with verbose mode for more details:
~~~
$ shed --verbose enter
~~~

## Example of a valid platform entry:
~~~cue
platforms: [
	{
		name: "x86_64-linux"
		libraries: ["openssl"]
		tools: ["protoc"]
	},
]
~~~`,
	}

	platformUnsupportedIssue = &Issue{
		id: PlatformUnsupportedId,
		mdMsg: `
# Platform not supported!

The platform you specified is not one shed's catalog carries builds for.

## Supported platforms:
- **x86_64-linux**
- **aarch64-linux**
- **x86_64-darwin**
- **aarch64-darwin**

## Things you can try:
- Check the spelling of the --platform flag ("linux-x86_64" is also accepted)
- Drop the flag to let shed detect the host:
~~~
$ shed enter
~~~`,
	}

	platformNotDeclaredIssue = &Issue{
		id: PlatformNotDeclaredId,
		mdMsg: `
# Platform not declared!

The manifest has no entry for the platform you are entering from, so
shed refuses to guess which packages you need.

## Things you can try:
- Add a platform block to your shedfile:
~~~cue
platforms: [
	{
		name: "aarch64-darwin"
		tools: ["pkg-config"]
	},
]
~~~

- Or enter as one of the declared platforms:
~~~
$ shed enter --platform x86_64-linux
~~~`,
	}

	packageUnresolvedIssue = &Issue{
		id: PackageUnresolvedId,
		mdMsg: `
# Package could not be resolved!

A package named in your shedfile is not available for your platform in
any configured catalog.

## Things you can try:
- Check for typos in the package name
- Inspect what the resolution chain sees:
~~~
$ shed resolve
~~~

- Pin the package in a local overlay and point your config at it:
~~~yaml
packages:
  mylib:
    x86_64-linux:
      store_path: /opt/pins/mylib
~~~`,
	}

	catalogUnavailableIssue = &Issue{
		id: CatalogUnavailableId,
		mdMsg: `
# Catalog unavailable!

The remote catalog could not be reached, so unpinned packages cannot be
resolved.

## Things you can try:
- Check your network connection and proxy settings
- Commit a lockfile so entering works offline:
~~~
$ shed lock
~~~

- Enter strictly from the lockfile:
~~~
$ shed enter --frozen
~~~

- Point shed at a mirror in your config:
~~~cue
catalog: url: "https://mirror.example.com"
~~~`,
	}

	storeCorruptedIssue = &Issue{
		id: StoreCorruptedId,
		mdMsg: `
# Store entry is corrupted!

A downloaded package failed its integrity check or was left half
unpacked.

## Things you can try:
- Let shed verify and repair the store:
~~~
$ shed doctor
~~~

- Remove the store and let shed re-download on the next enter:
~~~
$ rm -rf "$(shed config cache-dir)"/store
~~~`,
	}

	toolchainNotFoundIssue = &Issue{
		id: ToolchainNotFoundId,
		mdMsg: `
# rustup not found!

Your shedfile declares a toolchain, which shed manages through rustup,
but rustup is not on your PATH.

## Things you can try:
- Install rustup:
~~~
$ curl --proto '=https' --tlsv1.2 -sSf https://sh.rustup.rs | sh
~~~

- Or drop the toolchain block from your shedfile if you manage the
  toolchain yourself`,
	}

	bootstrapFailedIssue = &Issue{
		id: BootstrapFailedId,
		mdMsg: `
# Bootstrap failed!

One of the toolchain setup steps did not complete, so the environment
was not entered.

## The steps, in order:
1. Select the default channel
2. Register cross-compilation targets
3. Register components
4. Install declared extensions

## Things you can try:
- Read the failing step's name in the error above
- Run the failing rustup command by hand to see its full output
- Re-run the enter; every step is safe to repeat:
~~~
$ shed enter
~~~`,
	}

	extensionInstallFailedIssue = &Issue{
		id: ExtensionInstallFailedId,
		mdMsg: `
# Extension install failed!

A declared extension was not present and its install command exited
with an error.

## Things you can try:
- Run the install command by hand to see its full output
- Check that the install command's tool (usually cargo) is available
  inside the environment
- Remove the extension from your shedfile if you no longer need it:
~~~cue
extensions: [
	{
		name:    "tauri-cli"
		probe:   ["cargo", "tauri", "--version"]
		install: ["cargo", "install", "tauri-cli"]
	},
]
~~~`,
	}

	hookFailedIssue = &Issue{
		id: HookFailedId,
		mdMsg: `
# The on_enter hook failed!

Your shedfile's on_enter script exited with an error, so the shell was
not handed over.

## Things you can try:
- Run the hook's commands by hand inside the project directory
- Remember the hook runs in shed's built-in POSIX interpreter, not your
  login shell; bashisms will not work
- Simplify the hook:
~~~cue
hooks: on_enter: "echo ready"
~~~`,
	}

	shellNotFoundIssue = &Issue{
		id: ShellNotFoundId,
		mdMsg: `
# Shell not found!

Could not find a shell to hand the environment over to.

## Shells we look for:
1. The shell configured in your shed config
2. $SHELL
3. /bin/bash, then /bin/sh

## Things you can try:
- Install bash or another POSIX shell
- Set the SHELL environment variable
- Configure a shell explicitly:
~~~cue
shell: "/usr/bin/fish"
~~~`,
	}

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Failed to load configuration!

Could not load the shed configuration file.

## Configuration file locations:
- Linux: ~/.config/shed/config.cue
- macOS: ~/Library/Application Support/shed/config.cue
- Windows: %APPDATA%\shed\config.cue

## Things you can try:
- Create a default configuration:
~~~
$ shed config init
~~~

- Check the configuration syntax
- Remove the config file to use defaults:
~~~
$ rm ~/.config/shed/config.cue
~~~

## Example configuration:
~~~cue
catalog: {
	url:     "https://cache.nixos.org"
	channel: "trunk-combined"
}

shell: "/bin/zsh"
~~~`,
	}

	lockfileInvalidIssue = &Issue{
		id: LockfileInvalidId,
		mdMsg: `
# Lockfile is invalid!

The shed.lock next to your shedfile could not be parsed, so resolution
was aborted rather than silently falling back to the network.

## Things you can try:
- Regenerate the lockfile:
~~~
$ shed lock
~~~

- If the file was hand-edited, restore it from version control
- Delete it to resolve from the catalog again:
~~~
$ rm shed.lock
~~~`,
	}

	frozenWithoutLockIssue = &Issue{
		id: FrozenWithoutLockId,
		mdMsg: `
# Frozen entry needs a lockfile!

You passed --frozen, which restricts resolution to shed.lock, but there
is no shed.lock next to your shedfile.

## Things you can try:
- Generate one first:
~~~
$ shed lock
$ shed enter --frozen
~~~

- Or drop --frozen to resolve from the configured catalogs`,
	}

	permissionDeniedIssue = &Issue{
		id: PermissionDeniedId,
		mdMsg: `
# Permission denied!

You don't have permission to perform this operation.

## Common causes:
- The store directory is owned by another user
- The project directory is read-only
- A hook writes to a protected path

## Things you can try:
- Check the ownership of the cache directory:
~~~
$ ls -ld "$(shed config cache-dir)"
~~~

- Point the cache at a directory you own:
~~~cue
cache_dir: "/home/me/.cache/shed"
~~~

- Run shed from a directory you own`,
	}

	issues = map[Id]*Issue{
		manifestNotFoundIssue.Id():       manifestNotFoundIssue,
		manifestParseErrorIssue.Id():     manifestParseErrorIssue,
		platformUnsupportedIssue.Id():    platformUnsupportedIssue,
		platformNotDeclaredIssue.Id():    platformNotDeclaredIssue,
		packageUnresolvedIssue.Id():      packageUnresolvedIssue,
		catalogUnavailableIssue.Id():     catalogUnavailableIssue,
		storeCorruptedIssue.Id():         storeCorruptedIssue,
		toolchainNotFoundIssue.Id():      toolchainNotFoundIssue,
		bootstrapFailedIssue.Id():        bootstrapFailedIssue,
		extensionInstallFailedIssue.Id(): extensionInstallFailedIssue,
		hookFailedIssue.Id():             hookFailedIssue,
		shellNotFoundIssue.Id():          shellNotFoundIssue,
		configLoadFailedIssue.Id():       configLoadFailedIssue,
		lockfileInvalidIssue.Id():        lockfileInvalidIssue,
		frozenWithoutLockIssue.Id():      frozenWithoutLockIssue,
		permissionDeniedIssue.Id():       permissionDeniedIssue,
	}
)

func Values() []*Issue {
	return maps.Values(issues)
}

func Get(id Id) *Issue {
	return issues[id]
}
