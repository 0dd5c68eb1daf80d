package cmd

import (
	"fmt"
	"os"

	"github.com/Rana718/pbinit/internal/config"
	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	Version = "0.3.0"
)

func showBanner() {
	greenColor := color.New(color.FgGreen, color.Bold)

	banner := []string{
		"╔══════════════════════════════════════════════════════╗",
		"║   ██████╗ ██████╗ ██╗███╗   ██╗██╗████████╗          ║",
		"║   ██╔══██╗██╔══██╗██║████╗  ██║██║╚══██╔══╝          ║",
		"║   ██████╔╝██████╔╝██║██╔██╗ ██║██║   ██║             ║",
		"║   ██╔═══╝ ██╔══██╗██║██║╚██╗██║██║   ██║             ║",
		"║   ██║     ██████╔╝██║██║ ╚████║██║   ██║             ║",
		"║   ╚═╝     ╚═════╝ ╚═╝╚═╝  ╚═══╝╚═╝   ╚═╝             ║",
		"║                                                      ║",
		"║        📦 PocketBase collections & god mode 👑        ║",
		"╚══════════════════════════════════════════════════════╝",
	}

	for _, line := range banner {
		greenColor.Println(line)
	}

	fmt.Print("                    ")
	color.New(color.FgCyan, color.Bold).Print("Version: ")
	color.New(color.FgYellow, color.Bold).Printf("%s\n", Version)
}

var rootCmd = &cobra.Command{
	Use:   "pbinit",
	Short: "Bootstrap a PocketBase instance with collections and god mode users",
	Long: `
pbinit provisions a running PocketBase instance in one idempotent pass:

- creates the declared collections (existing ones are left untouched)
- makes sure every configured god mode email owns an elevated account

Running it again is safe: nothing that already exists is changed.`,
	SilenceUsage:  true,
	SilenceErrors: true,

	Run: func(cmd *cobra.Command, args []string) {
		showVersion, _ := cmd.Flags().GetBool("version")
		if showVersion {
			fmt.Printf("pbinit version %s\n", Version)
			return
		}

		if len(args) == 0 {
			showBanner()
			fmt.Println()
			cmd.Help()
		}
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is ./pbinit.config.json)")
	flags.String("url", "", "PocketBase base URL (default http://localhost:8090)")
	flags.String("log-level", "", "log level: debug, info, warn or error")
	flags.Bool("log-json", false, "emit logs as JSON")

	viper.BindPFlag("url", flags.Lookup("url"))
	viper.BindPFlag("log.level", flags.Lookup("log-level"))
	viper.BindPFlag("log.json", flags.Lookup("log-json"))

	rootCmd.Flags().BoolP("version", "v", false, "Show CLI version")
}

func initConfig() {
	if err := godotenv.Load(); err != nil {
		godotenv.Load(".env")
		godotenv.Load(".env.local")
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("json")
		viper.SetConfigName(config.ConfigName)
	}

	config.ConfigureEnv(viper.GetViper())

	if err := viper.ReadInConfig(); err != nil {
		if cfgFile != "" {
			fmt.Fprintf(os.Stderr, "⚠️  Could not read config file %s: %v\n", cfgFile, err)
		}
	}
}
