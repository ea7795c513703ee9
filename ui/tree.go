package ui

import (
	"fmt"
	"path"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Node represents a directory in the tree of visited paths.
type Node struct {
	Name     string
	Path     string
	Children []*Node
	Parent   *Node
	IsFound  bool // True if the file was found here
	IsFailed bool // True if listing this directory failed
}

var (
	foundStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true)
	failedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("160"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

// TreeOptions controls RenderTree.
type TreeOptions struct {
	// Found is the directory to highlight.
	Found string
	// Failed directories are shown dimmed in red.
	Failed map[string]bool
	// MaxLines caps the output; zero means no cap.
	MaxLines int
}

// RenderTree draws absolute slash paths as a tree. Chains of directories
// with a single child are collapsed into one line ("a/b/c").
func RenderTree(paths []string, opts TreeOptions) string {
	root := buildTree(paths, opts)
	compressTree(root)

	head := root.Name
	if root.IsFound {
		head = foundStyle.Render(head + "  ◀ found")
	}
	lines := []string{head}
	renderChildren(root, "", opts, &lines)

	if opts.MaxLines > 0 && len(lines) > opts.MaxLines {
		cut := len(lines) - opts.MaxLines + 1
		lines = append(lines[:opts.MaxLines-1], dimStyle.Render(fmt.Sprintf("… %d more", cut)))
	}
	return strings.Join(lines, "\n")
}

func buildTree(paths []string, opts TreeOptions) *Node {
	root := &Node{Name: "/", Path: "/"}
	for _, p := range paths {
		p = path.Clean("/" + p)
		current := root
		for _, part := range strings.Split(strings.TrimPrefix(p, "/"), "/") {
			if part == "" {
				continue
			}
			var child *Node
			for _, c := range current.Children {
				if c.Name == part {
					child = c
					break
				}
			}
			if child == nil {
				child = &Node{
					Name:   part,
					Path:   path.Join(current.Path, part),
					Parent: current,
				}
				// Children keep visiting order.
				current.Children = append(current.Children, child)
			}
			current = child
		}
		if opts.Failed[current.Path] {
			current.IsFailed = true
		}
	}
	if opts.Found != "" {
		if n := findNode(root, path.Clean(opts.Found)); n != nil {
			n.IsFound = true
		}
	}
	return root
}

func findNode(root *Node, targetPath string) *Node {
	stack := []*Node{root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if n.Path == targetPath {
			return n
		}
		stack = append(stack, n.Children...)
	}
	return nil
}

func compressTree(node *Node) {
	for _, child := range node.Children {
		compressTree(child)
	}

	// The root keeps its own line.
	if node.Parent == nil {
		return
	}
	// A marked directory keeps its own line too, so the highlight stays exact.
	if len(node.Children) != 1 || node.IsFound || node.IsFailed {
		return
	}

	child := node.Children[0]
	node.Name = node.Name + "/" + child.Name
	node.Path = child.Path
	node.IsFound = child.IsFound
	node.IsFailed = child.IsFailed
	node.Children = child.Children
	for _, grandChild := range node.Children {
		grandChild.Parent = node
	}
}

func renderChildren(node *Node, prefix string, opts TreeOptions, lines *[]string) {
	for i, child := range node.Children {
		last := i == len(node.Children)-1
		branch, indent := "├── ", "│   "
		if last {
			branch, indent = "└── ", "    "
		}

		name := child.Name
		switch {
		case child.IsFound:
			name = foundStyle.Render(name + "  ◀ found")
		case child.IsFailed:
			name = failedStyle.Render(name + "  (unreadable)")
		}
		*lines = append(*lines, dimStyle.Render(prefix+branch)+name)
		renderChildren(child, prefix+indent, opts, lines)
	}
}
