package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/DeusData/builder-migrate/internal/hir"
	"github.com/DeusData/builder-migrate/internal/lang"
	"github.com/DeusData/builder-migrate/internal/parser"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
)

const sample = `async fn ping(channel: ChannelId, http: &Http) {
    channel.send_message(http, |m| m.content("pong").embed(|e| e.title("t"))).await;
}
`

func printAST(node *tree_sitter.Node, source []byte, indent int) {
	if node == nil {
		return
	}
	prefix := strings.Repeat("  ", indent)
	field := ""
	if node.Parent() != nil {
		for i := uint(0); i < node.Parent().ChildCount(); i++ {
			if c := node.Parent().Child(i); c != nil && c.Id() == node.Id() {
				if name := node.Parent().FieldNameForChild(uint32(i)); name != "" {
					field = name + ": "
				}
				break
			}
		}
	}
	text := string(source[node.StartByte():node.EndByte()])
	if len(text) > 60 {
		text = text[:60] + "..."
	}
	fmt.Printf("%s%s%s [%d..%d] %q\n", prefix, field, node.Kind(), node.StartByte(), node.EndByte(), text)
	for i := uint(0); i < node.ChildCount(); i++ {
		printAST(node.Child(i), source, indent+1)
	}
}

func main() {
	skipTree := flag.Bool("no-tree", false, "skip the tree-sitter dump")
	flag.Parse()

	src := []byte(sample)
	if flag.NArg() > 0 {
		data, err := os.ReadFile(flag.Arg(0))
		if err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			os.Exit(1)
		}
		src = data
	}

	if !*skipTree {
		fmt.Println("=== TREE-SITTER ===")
		tree, err := parser.Parse(lang.Rust, src)
		if err != nil {
			fmt.Println("Error:", err)
		}
		if tree != nil {
			printAST(tree.RootNode(), src, 0)
			tree.Close()
		}
	}

	fmt.Println("\n=== HIR ===")
	f, err := hir.ParseFile(0, src)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
	if err := hir.Dump(os.Stdout, f); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
