package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sync"
	"sync/atomic"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/curator/internal/common"
	"github.com/ternarybob/curator/internal/models"
	"github.com/ternarybob/curator/internal/notion"
	"github.com/ternarybob/curator/internal/services/markdown"
)

var (
	configFile   = flag.String("config", "", "Configuration file path")
	dbName       = flag.String("db", "", "Database name (required)")
	action       = flag.String("action", "", "Action: view, update, add_prop, remove_prop, filter (required)")
	pageTitle    = flag.String("page", "", "Page title (view a single page's rendered content)")
	text         = flag.String("text", "", "Text content for batch update")
	propName     = flag.String("prop_name", "", "Property name")
	propType     = flag.String("prop_type", "", "Property type: text, number, checkbox, select, date")
	defaultValue = flag.String("default_value", "", "Default value for new property")
	filterProp   = flag.String("filter_prop", "", "Filter property name")
	filterValue  = flag.String("filter_value", "", "Filter value")
	filterType   = flag.String("filter_type", "equals", "Filter type: equals, contains, greater_than, less_than")
)

func main() {
	flag.Parse()

	if *dbName == "" || *action == "" {
		fmt.Fprintln(os.Stderr, "both --db and --action are required")
		flag.Usage()
		os.Exit(2)
	}

	var paths []string
	if *configFile != "" {
		paths = append(paths, *configFile)
	} else if _, err := os.Stat("curator.toml"); err == nil {
		paths = append(paths, "curator.toml")
	}

	config, err := common.LoadFromFiles(paths...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	logger := common.GetLogger()

	client := notion.NewClientFromConfig(&config.Notion)
	ctx := context.Background()

	databaseID, err := client.GetDatabaseByName(ctx, *dbName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "database lookup failed: %v\n", err)
		os.Exit(1)
	}
	if databaseID == "" {
		fmt.Printf("database not found: %s\n", *dbName)
		return
	}

	switch *action {
	case "view":
		err = runView(ctx, client, config, databaseID)
	case "update":
		err = runUpdate(ctx, client, config, databaseID, logger)
	case "add_prop":
		err = runAddProp(ctx, client, databaseID)
	case "remove_prop":
		err = runRemoveProp(ctx, client, databaseID)
	case "filter":
		err = runFilter(ctx, client, config, databaseID)
	default:
		fmt.Fprintf(os.Stderr, "unknown action: %s\n", *action)
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s failed: %v\n", *action, err)
		os.Exit(1)
	}
}

// runView prints database row titles, or one page's rendered Markdown
// when --page names a row.
func runView(ctx context.Context, client *notion.Client, config *common.Config, databaseID string) error {
	pages, err := client.GetDatabaseContent(ctx, databaseID, true)
	if err != nil {
		return err
	}

	if *pageTitle != "" {
		for _, page := range pages {
			if prop, ok := page.Properties[config.Workspace.TitleProperty]; ok && prop.PlainTitle() == *pageTitle {
				blocks, err := client.ListBlockChildren(ctx, page.ID)
				if err != nil {
					return err
				}
				content, ok := markdown.RenderBlocks(blocks)
				if !ok {
					fmt.Printf("page %q has no renderable content\n", *pageTitle)
					return nil
				}
				fmt.Println(content)
				return nil
			}
		}
		fmt.Printf("page not found: %s\n", *pageTitle)
		return nil
	}

	fmt.Printf("database rows (%d):\n", len(pages))
	for _, page := range pages {
		fmt.Printf("- %s\n", rowTitle(page, config.Workspace.TitleProperty))
	}
	return nil
}

// runUpdate fills the free-text property of every row whose text is
// still empty. Pages update concurrently; the client's shared throttle
// spaces the calls.
func runUpdate(ctx context.Context, client *notion.Client, config *common.Config, databaseID string, logger arbor.ILogger) error {
	if *text == "" {
		return fmt.Errorf("--text is required for update")
	}

	pages, err := client.GetDatabaseContent(ctx, databaseID, false)
	if err != nil {
		return err
	}

	var successCount int64
	var wg sync.WaitGroup
	for _, page := range pages {
		prop, ok := page.Properties[config.Workspace.TextProperty]
		if ok && prop.PlainText() != "" {
			continue
		}

		wg.Add(1)
		go func(pageID string) {
			defer wg.Done()
			err := client.UpdatePageProperties(ctx, pageID, map[string]any{
				config.Workspace.TextProperty: map[string]any{
					"rich_text": []map[string]any{
						{"text": map[string]any{"content": *text}},
					},
				},
			})
			if err != nil {
				logger.Warn().Err(err).Str("page_id", pageID).Msg("Page text update failed")
				return
			}
			atomic.AddInt64(&successCount, 1)
		}(page.ID)
	}
	wg.Wait()

	if successCount == 0 {
		fmt.Println("no pages needed updating")
		return nil
	}
	fmt.Printf("updated %d pages\n", successCount)
	return nil
}

func runAddProp(ctx context.Context, client *notion.Client, databaseID string) error {
	if *propName == "" || *propType == "" {
		return fmt.Errorf("--prop_name and --prop_type are required for add_prop")
	}

	var value any
	if *defaultValue != "" {
		value = *defaultValue
	}
	if err := client.AddDatabaseProperty(ctx, databaseID, *propName, *propType, value); err != nil {
		return err
	}
	fmt.Printf("added property: %s\n", *propName)
	return nil
}

func runRemoveProp(ctx context.Context, client *notion.Client, databaseID string) error {
	if *propName == "" {
		return fmt.Errorf("--prop_name is required for remove_prop")
	}

	if err := client.RemoveDatabaseProperty(ctx, databaseID, *propName); err != nil {
		return err
	}
	fmt.Printf("removed property: %s\n", *propName)
	return nil
}

func runFilter(ctx context.Context, client *notion.Client, config *common.Config, databaseID string) error {
	if *filterProp == "" || *filterValue == "" {
		return fmt.Errorf("--filter_prop and --filter_value are required for filter")
	}

	pages, err := client.QueryDatabase(ctx, databaseID, &models.Filter{
		Property:  *filterProp,
		Condition: *filterType,
		Value:     *filterValue,
	})
	if err != nil {
		return err
	}

	fmt.Printf("matching rows (%d):\n", len(pages))
	for _, page := range pages {
		fmt.Printf("- %s\n", rowTitle(page, config.Workspace.TitleProperty))
	}
	return nil
}

func rowTitle(page models.Page, titleProperty string) string {
	if prop, ok := page.Properties[titleProperty]; ok {
		if title := prop.PlainTitle(); title != "" {
			return title
		}
	}
	return "未命名"
}
